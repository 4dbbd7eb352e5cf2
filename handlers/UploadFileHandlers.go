package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"boxtrack/repository"
	"boxtrack/utils"

	"github.com/gin-gonic/gin"
)

// uploadDir is where progress photos and issue images land. Overridable so
// deployments can point it at the mounted volume.
func uploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "/var/www/boxtrack/"
}

// ServeFile godoc
// @Summary      Serve file
// @Description  Serve a file by name from query param ?file=filename
// @Tags         upload
// @Produce      application/octet-stream
// @Param        file  query     string  true  "File name (path relative to storage)"
// @Success      200   {file}   file    "File content"
// @Failure      400   {object}  object
// @Failure      403   {object}  object
// @Failure      404   {object}  object
// @Router       /api/get-file [get]
func ServeFile(c *gin.Context) {
	fileName := c.Query("file")
	if fileName == "" {
		utils.ErrorResponse(c, "file parameter is required", http.StatusBadRequest)
		return
	}

	// Secure the file path to prevent directory traversal attacks
	cleanFileName := filepath.Clean(fileName)
	if cleanFileName != fileName || strings.Contains(cleanFileName, "..") {
		utils.ErrorResponse(c, "invalid file path", http.StatusBadRequest)
		return
	}

	absoluteDir, err := filepath.Abs(uploadDir())
	if err != nil {
		utils.ErrorResponse(c, "server error", http.StatusInternalServerError)
		return
	}

	filePath := filepath.Join(absoluteDir, cleanFileName)
	if !strings.HasPrefix(filePath, absoluteDir+string(os.PathSeparator)) {
		utils.ErrorResponse(c, "access denied", http.StatusForbidden)
		return
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) || (info != nil && info.IsDir()) {
		utils.ErrorResponse(c, "file not found", http.StatusNotFound)
		return
	}

	c.File(filePath)
}

// UploadFile godoc
// @Summary      Upload file
// @Description  Upload a file (multipart form, field name: file)
// @Tags         upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file    true  "File to upload"
// @Success      200   {object}  object  "message, file path, etc."
// @Failure      400   {object}  object
// @Failure      500   {object}  object
// @Router       /api/upload [post]
func UploadFile(c *gin.Context) {
	file, handler, err := c.Request.FormFile("file")
	if err != nil {
		utils.ErrorResponse(c, "Error retrieving the file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := filepath.Base(handler.Filename)
	if filename == "" || filename == "." {
		utils.ErrorResponse(c, "Invalid file name", http.StatusBadRequest)
		return
	}

	dir := uploadDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		utils.ErrorResponse(c, "Unable to create directory", http.StatusInternalServerError)
		return
	}

	uniqueName := fmt.Sprintf("%d-%s-%s", time.Now().Unix(), repository.GenerateRandomCode(), filename)
	dstPath := filepath.Join(dir, uniqueName)

	dst, err := os.Create(dstPath)
	if err != nil {
		utils.ErrorResponse(c, "Unable to create the file", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		utils.ErrorResponse(c, "Unable to save the file", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "File uploaded successfully",
		"file_name": uniqueName,
		"file_size": handler.Size,
		"file_type": handler.Header.Get("Content-Type"),
	})
}
