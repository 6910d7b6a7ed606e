package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lucosms/luco-service/internal/domain"
)

type StorageHandler struct {
	store ObjectStore
}

func NewStorageHandler(store ObjectStore) *StorageHandler {
	return &StorageHandler{store: store}
}

// objectKey извлекает ключ объекта из wildcard параметра роута.
func objectKey(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("filename"), "/")
}

// Upload POST AWSRouteGroup + UploadRoute. Принимает multipart поле file и
// заливает его в бакет под оригинальным именем.
func (h *StorageHandler) Upload(c *gin.Context) {
	fileHeader, formErr := c.FormFile("file")
	if formErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, formErr).
			SetType(gin.ErrorTypeBind)
		return
	}

	file, openErr := fileHeader.Open()
	if openErr != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, openErr).
			SetType(gin.ErrorTypePrivate)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	ctx, cancel := context.WithTimeout(c, DefaultGatewayTimeout)
	defer cancel()

	contentType := fileHeader.Header.Get("Content-Type")
	if uploadErr := h.store.Upload(ctx, fileHeader.Filename, contentType, file); uploadErr != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, uploadErr).
			SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "file uploaded",
		"key":     fileHeader.Filename,
	})
}

// Download GET AWSRouteGroup + DownloadRoute. Стримит содержимое объекта
// через наш сервер.
func (h *StorageHandler) Download(c *gin.Context) {
	key := objectKey(c)

	ctx, cancel := context.WithTimeout(c, DefaultGatewayTimeout)
	defer cancel()

	result, downloadErr := h.store.Download(ctx, key)
	if downloadErr != nil {
		if errors.Is(downloadErr, domain.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, downloadErr).
			SetType(gin.ErrorTypePrivate)
		return
	}
	defer func() {
		_ = result.Body.Close()
	}()

	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, result.ContentLength, contentType, result.Body, map[string]string{
		"Content-Disposition": `attachment; filename="` + key + `"`,
	})
}

// PresignedURL GET AWSRouteGroup + PresignedURLRoute. Временная ссылка на
// скачивание напрямую из S3.
func (h *StorageHandler) PresignedURL(c *gin.Context) {
	key := objectKey(c)

	ctx, cancel := context.WithTimeout(c, DefaultGatewayTimeout)
	defer cancel()

	url, presignErr := h.store.PresignGet(ctx, key)
	if presignErr != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, presignErr).
			SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

type listFilesParams struct {
	Prefix   string `form:"prefix"`
	MaxItems int32  `form:"max_items,default=100" binding:"omitempty,gt=0"`
}

// Files GET AWSRouteGroup + FilesRoute. Список объектов бакета с опциональной
// фильтрацией по префиксу.
func (h *StorageHandler) Files(c *gin.Context) {
	var params listFilesParams
	if bindErr := c.ShouldBindQuery(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).
			SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultGatewayTimeout)
	defer cancel()

	objects, listErr := h.store.List(ctx, params.Prefix, params.MaxItems)
	if listErr != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, listErr).
			SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": objects})
}

// Delete DELETE AWSRouteGroup + DeleteRoute.
func (h *StorageHandler) Delete(c *gin.Context) {
	key := objectKey(c)

	ctx, cancel := context.WithTimeout(c, DefaultGatewayTimeout)
	defer cancel()

	if deleteErr := h.store.Delete(ctx, key); deleteErr != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, deleteErr).
			SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "file deleted",
		"key":     key,
	})
}
