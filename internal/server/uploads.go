package server

import (
	"errors"
	"net/http"

	xerrors "github.com/Slowper/emmawebsitempa-sub001/pkg/errors"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/storage"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/xerr"

	"github.com/gin-gonic/gin"
)

const defaultUploadFolder = "featured"

// upload 保存封面图，返回的 url 可直接写入 featured_image
func (s *Server) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Uploads.MaxSize)
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, xerrors.Wrap(xerr.ErrMissingParameter, "file is required", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer f.Close()

	url, err := s.files.UploadFile(c.Request.Context(), f, fh.Filename, c.DefaultPostForm("folder", defaultUploadFolder))
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			err = xerrors.Wrap(xerr.ErrInvalidInput, "only image files are accepted", err)
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "url": url})
}
