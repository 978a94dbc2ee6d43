package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
	"github.com/diosesguerreros/vehicle-portal/internal/core/ports"
)

// MaxUploadBytes mirrors the upload limit enforced by the backend.
const MaxUploadBytes = 10 << 20

var allowedUploadExts = []string{".pdf", ".png", ".jpg", ".jpeg"}

// List fetches path and decodes envelope[key] into into. When into can
// validate itself, an invalid collection is reported as a *DecodeError.
func (c *Client) List(ctx context.Context, token, path, key string, into any) error {
	payload, err := c.do(ctx, request{method: http.MethodGet, path: path, token: token})
	if err != nil {
		return err
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	raw, ok := envelope[key]
	if !ok {
		return &DecodeError{Path: path, Err: fmt.Errorf("missing %q in envelope", key)}
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	if v, ok := into.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return &DecodeError{Path: path, Err: err}
		}
	}
	return nil
}

// Create posts body to path. Bodies implementing domain.Multipart travel as
// multipart/form-data, with or without file.
func (c *Client) Create(ctx context.Context, token, path string, body any, file *ports.Attachment) error {
	return c.send(ctx, http.MethodPost, token, path, body, file)
}

// Update puts body to path, encoded like Create.
func (c *Client) Update(ctx context.Context, token, path string, body any, file *ports.Attachment) error {
	return c.send(ctx, http.MethodPut, token, path, body, file)
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, token, path string) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, path: path, token: token})
	return err
}

func (c *Client) send(ctx context.Context, method, token, path string, body any, file *ports.Attachment) error {
	var (
		reader      io.Reader
		contentType string
		err         error
	)
	if fields, ok := body.(domain.Multipart); ok {
		reader, contentType, err = multipartBody(fields.FormFields(), file)
	} else {
		reader, err = jsonBody(body)
		contentType = "application/json"
	}
	if err != nil {
		return err
	}

	_, err = c.do(ctx, request{method: method, path: path, token: token, body: reader, contentType: contentType})
	return err
}

// CheckAttachment enforces the backend's size and extension limits locally.
func CheckAttachment(file *ports.Attachment) error {
	if file.Size > MaxUploadBytes {
		return fmt.Errorf("%w: %s exceeds %d MB", domain.ErrValidation, file.Filename, MaxUploadBytes>>20)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !slices.Contains(allowedUploadExts, ext) {
		return fmt.Errorf("%w: %s must be a pdf, png, jpg or jpeg file", domain.ErrValidation, file.Filename)
	}
	return nil
}

// multipartBody encodes fields in key order, then file when present.
func multipartBody(fields map[string]string, file *ports.Attachment) (io.Reader, string, error) {
	if file != nil {
		if err := CheckAttachment(file); err != nil {
			return nil, "", err
		}
		if file.Open == nil {
			return nil, "", errors.New("attachment has no content")
		}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if file != nil {
		if err := writeFilePart(w, file); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, file *ports.Attachment) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open attachment: %w", err)
	}
	defer src.Close()

	part, err := w.CreateFormFile(file.Field, filepath.Base(file.Filename))
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, io.LimitReader(src, MaxUploadBytes+1)); err != nil {
		return fmt.Errorf("copy attachment: %w", err)
	}
	return nil
}
