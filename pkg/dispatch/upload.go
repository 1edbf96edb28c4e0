package dispatch

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/getmockd/mockgate/pkg/module"
	"github.com/getmockd/mockgate/pkg/reqctx"
)

// UploadField is the multipart field holding the uploaded file.
const UploadField = "filedata"

// maxUploadMemory is the part of a multipart form held in memory; larger
// files spill to temporary files that are removed after the copy.
const maxUploadMemory = 1 << 20

// UploadResult describes a stored upload.
type UploadResult struct {
	URL        string `json:"url"`
	PreviewURL string `json:"previewUrl"`
	FileName   string `json:"fileName"`
	Type       string `json:"type"`
}

// Upload dispatches a multipart upload request. The first uploaded file is
// stored in the upload directory and the default handler receives
// {success, callback, result}.
func (d *Dispatcher) Upload(ctx *reqctx.Context) {
	d.run(ctx, strategy{
		variant: VariantUpload,
		invoke:  d.invokeUpload,
		shape:   shapeUpload,
	})
}

func (d *Dispatcher) invokeUpload(ctx *reqctx.Context, m *module.Module) (module.Result, error) {
	req := ctx.Request
	query := parseQuery(req.Search)

	form, err := decodeMultipart(req)
	if err != nil {
		return module.Result{}, err
	}
	defer func() { _ = form.RemoveAll() }()

	fh := firstFile(form)
	if fh == nil {
		return module.Result{}, fmt.Errorf("%w: no file in form", ErrUploadDecode)
	}
	result, err := d.store(req.Host, fh)
	if err != nil {
		return module.Result{}, &FaultError{Identity: m.Identity, Key: module.DefaultKey, Err: err}
	}
	d.logger.Info("upload saved", "file", result.FileName, "dir", d.uploadDir)

	callback := query.Get("callback")
	if callback == "" {
		if vs := form.Value["callback"]; len(vs) > 0 {
			callback = vs[0]
		}
	}

	return invoke(m, module.DefaultKey, &module.Call{
		Path: req.Pathname,
		Body: map[string]any{
			"success":  true,
			"callback": callback,
			"result": map[string]any{
				"url":        result.URL,
				"previewUrl": result.PreviewURL,
				"fileName":   result.FileName,
				"type":       result.Type,
			},
		},
		Query:   query,
		Context: ctx,
	})
}

func decodeMultipart(req *reqctx.Request) (*multipart.Form, error) {
	_, params, err := mime.ParseMediaType(req.ContentType())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadDecode, err)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("%w: missing multipart boundary", ErrUploadDecode)
	}
	form, err := multipart.NewReader(req.BodyReader(), boundary).ReadForm(maxUploadMemory)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadDecode, err)
	}
	return form, nil
}

// firstFile returns the first file of the upload field, or of any field.
func firstFile(form *multipart.Form) *multipart.FileHeader {
	if fhs := form.File[UploadField]; len(fhs) > 0 {
		return fhs[0]
	}
	fields := make([]string, 0, len(form.File))
	for k := range form.File {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		if fhs := form.File[k]; len(fhs) > 0 {
			return fhs[0]
		}
	}
	return nil
}

func (d *Dispatcher) store(host string, fh *multipart.FileHeader) (UploadResult, error) {
	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(fh.Filename, "\\", "/")))
	if name == "" || name == "." || name == "/" || name == ".." {
		return UploadResult{}, fmt.Errorf("invalid upload file name %q", fh.Filename)
	}

	if err := os.MkdirAll(d.uploadDir, 0o755); err != nil {
		return UploadResult{}, fmt.Errorf("create upload dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return UploadResult{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(d.uploadDir, name))
	if err != nil {
		return UploadResult{}, fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return UploadResult{}, fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("write upload file: %w", err)
	}

	u := "http://" + host + "/"
	if d.uploadURL != "" {
		u += d.uploadURL + "/"
	}
	u += url.PathEscape(name)
	return UploadResult{URL: u, PreviewURL: u, FileName: name, Type: fileType(name)}, nil
}

// fileType is the text after the last dot, or the whole name without one.
func fileType(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

func shapeUpload(ctx *reqctx.Context, res module.Result) error {
	body, ok := htmlBody(res)
	if !ok {
		b, err := json.Marshal(res.Data)
		if err != nil {
			return fmt.Errorf("encode upload response: %w", err)
		}
		body = b
	}
	ctx.Status = http.StatusOK
	applyMeta(ctx, res)
	ctx.SetContentType(HTMLContentType)
	ctx.Content = body
	return nil
}
