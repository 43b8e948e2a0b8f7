package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/ogurasousui/hr-records-api/internal/core/employee"
	"github.com/ogurasousui/hr-records-api/internal/core/rules"
)

const (
	defaultMultipartMemory = 8 << 20

	// maxFormBytes はファイルを除いた本文の上限です。
	maxFormBytes = 2621440

	msgBodyTooLarge   = "Request body is too large."
	msgInvalidNumber  = "A valid number is required."
	msgInvalidBoolean = "Must be a valid boolean."
	msgNotAFile       = "The submitted data was not a file. Check the encoding type on the form."
	msgEmptyFile      = "The submitted file is empty."
	msgInvalidImage   = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

// badRequestError はフィールドに紐づかないリクエスト全体の不備です。
type badRequestError struct {
	detail string
}

func (e *badRequestError) Error() string {
	return e.detail
}

// payload は JSON・URL エンコード・マルチパートのいずれかで送られた本文です。
// フィールドの有無と明示的な null を区別して保持します。
type payload struct {
	values map[string]any
	files  map[string]*multipart.FileHeader
	form   bool
}

// readPayload は Content-Type に応じて本文を読み込みます。本文が空の場合は空の payload を返します。
// 本文は maxFormBytes まで、マルチパートの場合はさらに maxFileBytes を加えた大きさまでに制限します。
func readPayload(c *gin.Context, maxFileBytes int64) (*payload, error) {
	p := &payload{values: map[string]any{}, files: map[string]*multipart.FileHeader{}}

	mediaType := ""
	if ct := c.GetHeader("Content-Type"); ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, &unsupportedMediaTypeError{mediaType: ct}
		}
		mediaType = parsed
	}

	limit := int64(maxFormBytes)
	if mediaType == "multipart/form-data" && maxFileBytes > 0 {
		limit += maxFileBytes
	}
	if c.Request.ContentLength > limit {
		return nil, &http.MaxBytesError{Limit: limit}
	}
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	switch mediaType {
	case "", "application/json":
		if err := p.readJSON(c.Request.Body); err != nil {
			if tooLarge := bodyLimitError(c.Request.Body, err); tooLarge != nil {
				return nil, tooLarge
			}
			return nil, err
		}
		return p, nil
	case "application/x-www-form-urlencoded":
		if err := c.Request.ParseForm(); err != nil {
			if tooLarge := bodyLimitError(c.Request.Body, err); tooLarge != nil {
				return nil, tooLarge
			}
			return nil, &badRequestError{detail: "Malformed form data."}
		}
		p.form = true
		for field, vs := range c.Request.PostForm {
			if len(vs) > 0 {
				p.values[field] = vs[0]
			}
		}
		return p, nil
	case "multipart/form-data":
		if err := c.Request.ParseMultipartForm(defaultMultipartMemory); err != nil {
			if tooLarge := bodyLimitError(c.Request.Body, err); tooLarge != nil {
				return nil, tooLarge
			}
			return nil, &badRequestError{detail: "Multipart form parse error - " + err.Error()}
		}
		p.form = true
		for field, vs := range c.Request.MultipartForm.Value {
			if len(vs) > 0 {
				p.values[field] = vs[0]
			}
		}
		for field, fhs := range c.Request.MultipartForm.File {
			if len(fhs) > 0 {
				p.files[field] = fhs[0]
			}
		}
		return p, nil
	default:
		return nil, &unsupportedMediaTypeError{mediaType: mediaType}
	}
}

// bodyLimitError は err が本文の上限超過によるものであれば *http.MaxBytesError を返します。
// パーサーがエラーを包まずに返す場合に備え、上限に達した本文はもう一度読んで判定します。
func bodyLimitError(body io.Reader, err error) *http.MaxBytesError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return tooLarge
	}
	if body == nil {
		return nil
	}
	if _, rerr := body.Read(make([]byte, 1)); errors.As(rerr, &tooLarge) {
		return tooLarge
	}
	return nil
}

func (p *payload) readJSON(body io.Reader) error {
	if body == nil {
		return nil
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return &badRequestError{detail: "JSON parse error - " + err.Error()}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return &badRequestError{detail: "JSON parse error - " + err.Error()}
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return validation.Errors{
			"non_field_errors": validation.NewError("invalid", fmt.Sprintf("Invalid data. Expected a dictionary, but got %s.", jsonTypeName(decoded))),
		}
	}
	p.values = obj
	return nil
}

// unsupportedMediaTypeError は対応していない Content-Type です。
type unsupportedMediaTypeError struct {
	mediaType string
}

func (e *unsupportedMediaTypeError) Error() string {
	return fmt.Sprintf("Unsupported media type \"%s\" in request.", e.mediaType)
}

func (p *payload) has(field string) bool {
	if _, ok := p.values[field]; ok {
		return true
	}
	_, ok := p.files[field]
	return ok
}

// text は文字列フィールドを取り出します。数値と真偽値は文字列に変換します。
func (p *payload) text(field string, errs validation.Errors) *string {
	v, ok := p.values[field]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case nil:
		errs[field] = validation.NewError("null", rules.MsgNull)
		return nil
	case string:
		return &t
	case json.Number:
		s := t.String()
		return &s
	case bool:
		s := "False"
		if t {
			s = "True"
		}
		return &s
	default:
		errs[field] = validation.NewError("invalid", "Not a valid string.")
		return nil
	}
}

// decimal は数値フィールドを取り出します。
func (p *payload) decimal(field string, errs validation.Errors) *decimal.Decimal {
	v, ok := p.values[field]
	if !ok {
		return nil
	}

	var raw string
	switch t := v.(type) {
	case nil:
		errs[field] = validation.NewError("null", rules.MsgNull)
		return nil
	case json.Number:
		raw = t.String()
	case string:
		raw = strings.TrimSpace(t)
	default:
		errs[field] = validation.NewError("invalid", msgInvalidNumber)
		return nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		errs[field] = validation.NewError("invalid", msgInvalidNumber)
		return nil
	}
	return &d
}

// boolean は真偽値フィールドを取り出します。フォームでは true/false/1/0 などの表記を受け付けます。
func (p *payload) boolean(field string, errs validation.Errors) *bool {
	v, ok := p.values[field]
	if !ok {
		return nil
	}

	switch t := v.(type) {
	case nil:
		errs[field] = validation.NewError("null", rules.MsgNull)
		return nil
	case bool:
		return &t
	case json.Number:
		if b, ok := parseBool(t.String()); ok {
			return &b
		}
	case string:
		if b, ok := parseBool(t); ok {
			return &b
		}
	}
	errs[field] = validation.NewError("invalid", msgInvalidBoolean)
	return nil
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on", "t", "y":
		return true, true
	case "false", "0", "no", "off", "f", "n":
		return false, true
	}
	return false, false
}

// ref は主キー参照フィールドを取り出します。null とフォームの空文字は参照の解除を表します。
func (p *payload) ref(field string, errs validation.Errors) employee.Ref {
	v, ok := p.values[field]
	if !ok {
		return employee.Ref{}
	}

	switch t := v.(type) {
	case nil:
		return employee.Ref{Set: true}
	case json.Number:
		if id, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return employee.Ref{ID: &id, Set: true}
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" && p.form {
			return employee.Ref{Set: true}
		}
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			return employee.Ref{ID: &id, Set: true}
		}
	}
	errs[field] = validation.NewError("incorrect_type", fmt.Sprintf("Incorrect type. Expected pk value, received %s.", jsonTypeName(v)))
	return employee.Ref{}
}

// image は画像ファイルを読み込み、内容から MIME タイプを判定します。
// set が true で返り値が nil の場合は画像の解除を表します。アップロードの読み込み自体に失敗した場合は err を返します。
func (p *payload) image(field string, maxBytes int64, errs validation.Errors) (img *employee.Image, set bool, err error) {
	if fh, ok := p.files[field]; ok {
		img, err := openImage(fh, maxBytes)
		var fieldErr validation.Error
		if errors.As(err, &fieldErr) {
			errs[field] = fieldErr
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return img, true, nil
	}

	v, ok := p.values[field]
	if !ok {
		return nil, false, nil
	}
	if v == nil {
		return nil, true, nil
	}
	if s, ok := v.(string); ok && s == "" && p.form {
		return nil, true, nil
	}
	errs[field] = validation.NewError("invalid", msgNotAFile)
	return nil, false, nil
}

func openImage(fh *multipart.FileHeader, maxBytes int64) (*employee.Image, error) {
	if fh.Size == 0 {
		return nil, validation.NewError("empty", msgEmptyFile)
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, validation.NewError("max_size", fmt.Sprintf("Ensure this file size is not greater than %d bytes.", maxBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("handler: open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("handler: read upload %s: %w", fh.Filename, err)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, validation.NewError("invalid_image", msgInvalidImage)
	}

	return &employee.Image{
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	}, nil
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case string:
		return "str"
	case json.Number:
		return "float"
	case bool:
		return "bool"
	case []any:
		return "list"
	case map[string]any:
		return "dict"
	default:
		return "unknown"
	}
}
