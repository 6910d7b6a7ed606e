package repoargs

type CreateUser struct {
	Username    string
	Email       string
	ClerkUserID string
}
