package routes

import (
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

const indexFile = "index.html"

// StaticHandler serves files from publicDir and falls back to index.html
// for every path that is not an existing regular file, leaving routing to
// the single-page frontend. Request paths are cleaned against "/" before
// joining so they cannot climb out of publicDir.
func StaticHandler(publicDir string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rel := c.Params("*"); rel != "" {
			if file, ok := resolvePublicFile(publicDir, rel); ok {
				return sendFile(c, file)
			}
		}

		index := filepath.Join(publicDir, indexFile)
		if !isRegularFile(index) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "frontend not found"})
		}
		return sendFile(c, index)
	}
}

func resolvePublicFile(publicDir, rel string) (string, bool) {
	if unescaped, err := url.PathUnescape(rel); err == nil {
		rel = unescaped
	}
	clean := path.Clean("/" + rel)
	if clean == "/" {
		return "", false
	}
	file := filepath.Join(publicDir, filepath.FromSlash(clean))
	return file, isRegularFile(file)
}

func isRegularFile(name string) bool {
	info, err := os.Stat(name)
	return err == nil && info.Mode().IsRegular()
}

func sendFile(c *fiber.Ctx, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	ct := mime.TypeByExtension(filepath.Ext(file))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	c.Set(fiber.HeaderContentType, ct)
	return c.Send(data)
}
