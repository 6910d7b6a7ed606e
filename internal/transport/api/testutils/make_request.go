package testutils

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
)

type RequestOptions struct {
	headers map[string]string
}

type RequestArgs struct {
	Router http.Handler
	Method string
	URL    string
	Body   io.Reader
}

func MakeRequest(args RequestArgs, opts ...func(*RequestOptions)) (*http.Response, error) {
	options := RequestOptions{
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(&options)
	}

	request := httptest.NewRequest(args.Method, args.URL, args.Body)
	for k, v := range options.headers {
		request.Header.Set(k, v)
	}

	recorder := httptest.NewRecorder()
	args.Router.ServeHTTP(recorder, request)

	return recorder.Result(), nil
}

func WithHeader(name, value string) func(*RequestOptions) {
	return func(fn *RequestOptions) {
		fn.headers[name] = value
	}
}

// MultipartFile собирает multipart/form-data тело с одним файловым полем.
// Возвращает тело и значение Content-Type заголовка.
func MultipartFile(fieldName, fileName string, content []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, partErr := writer.CreateFormFile(fieldName, fileName)
	if partErr != nil {
		return nil, "", fmt.Errorf("creating form file: %s", partErr.Error())
	}
	if _, writeErr := part.Write(content); writeErr != nil {
		return nil, "", fmt.Errorf("writing form file content: %s", writeErr.Error())
	}
	if closeErr := writer.Close(); closeErr != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %s", closeErr.Error())
	}

	return &buf, writer.FormDataContentType(), nil
}
