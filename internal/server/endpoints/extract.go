package endpoints

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/jackzampolin/docextract/internal/extract"
	"github.com/jackzampolin/docextract/internal/schema"
	"github.com/jackzampolin/docextract/internal/svcctx"
	"github.com/jackzampolin/docextract/internal/upload"
)

const (
	// DefaultMaxFileSize applies when no limit is configured.
	DefaultMaxFileSize int64 = 10 * 1024 * 1024

	// formOverhead is the slack allowed on top of the file limit for the
	// multipart envelope and schema_config.
	formOverhead int64 = 1 << 20
	formMemory   int64 = 32 << 20
)

// ExtractResponse is the sandbox extraction result.
type ExtractResponse struct {
	Status               string          `json:"status"`
	Filename             string          `json:"filename"`
	ExtractionSchemaUsed json.RawMessage `json:"extraction_schema_used" swaggertype:"object"`
	Data                 json.RawMessage `json:"data" swaggertype:"object"`
	RawText              string          `json:"raw_text"`
}

// ExtractEndpoint handles POST /api/v1/extract.
type ExtractEndpoint struct {
	Config Config
}

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", extract.ExtractPath, e.handler
}

func (e *ExtractEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Extract structured data from a document
//	@Description	Validates the upload and schema and answers with a schema-shaped
//	@Description	skeleton. The sandbox performs no OCR or inference.
//	@Tags			extract
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file			formData	file	true	"PDF, JPEG, PNG or WEBP document"
//	@Param			schema_config	formData	string	false	"JSON list of schema fields"
//	@Success		200				{object}	ExtractResponse
//	@Failure		400				{object}	ErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Failure		413				{object}	ErrorResponse
//	@Failure		422				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/extract [post]
func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := svcctx.LoggerFrom(ctx)

	limit := svcctx.LimitsFrom(ctx).MaxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, tooLargeMessage(limit))
			return
		}
		writeError(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	file.Close()

	contentType := header.Header.Get("Content-Type")
	if !upload.IsAllowed(contentType) {
		writeError(w, http.StatusBadRequest, "Invalid file type. Allowed: "+strings.Join(upload.AllowedTypes, ", "))
		return
	}
	if header.Size > limit {
		writeError(w, http.StatusRequestEntityTooLarge, tooLargeMessage(limit))
		return
	}

	fields, used, err := resolveSchema(r.FormValue("schema_config"), svcctx.DefaultSchemaFrom(ctx))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.Info("extraction request",
		"filename", header.Filename,
		"content_type", contentType,
		"size", header.Size,
		"fields", len(fields))

	writeJSON(w, http.StatusOK, ExtractResponse{
		Status:               "success",
		Filename:             header.Filename,
		ExtractionSchemaUsed: used,
		Data:                 Skeleton(fields),
		RawText:              "",
	})
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	var schemaFile string
	cmd := &cobra.Command{
		Use:   "extract <document>",
		Short: "Send a document to the extraction service",
		Long: `Send a document to the extraction service and print the response body.

Without --schema the starter invoice schema is sent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			file, err := upload.Select(args[0])
			if err != nil {
				return err
			}
			fields := schema.Starter(uuid.NewString)
			if schemaFile != "" {
				if fields, err = schema.LoadFile(schemaFile); err != nil {
					return err
				}
			}
			config, err := schema.MarshalSchemaConfig(fields)
			if err != nil {
				return err
			}

			client := e.Config.client(getServerURL())
			resp, err := client.Extract(ctx, extract.Request{File: file, SchemaConfig: config})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.RawText)
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaFile, "schema", "", "Schema file (YAML or JSON)")
	return cmd
}

func tooLargeMessage(limit int64) string {
	const mb = 1024 * 1024
	if limit%mb == 0 {
		return fmt.Sprintf("File too large. Max size: %dMB", limit/mb)
	}
	return fmt.Sprintf("File too large. Max size: %d bytes", limit)
}

// resolveSchema parses the schema_config form value. It accepts the editor's
// list of fields or an object keyed by field name. An empty value selects
// fallback. The returned bytes echo the schema that was applied.
func resolveSchema(raw string, fallback schema.Schema) (schema.Schema, json.RawMessage, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		used, err := schema.MarshalSchemaConfig(fallback)
		if err != nil {
			return nil, nil, err
		}
		return fallback, used, nil
	}
	if !gjson.Valid(raw) {
		return nil, nil, errors.New("Invalid JSON in schema_config")
	}

	res := gjson.Parse(raw)
	var (
		fields schema.Schema
		err    error
	)
	switch {
	case res.IsArray():
		fields, err = schema.Decode([]byte(raw), schema.FormatJSON)
	case res.IsObject():
		fields, err = fieldsFromObject(res)
	default:
		err = errors.New("expected a list of fields")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("Invalid schema_config: %w", err)
	}
	return fields, json.RawMessage(raw), nil
}

// fieldsFromObject reads the {"key": {"type": ..., "description": ...}} form.
func fieldsFromObject(res gjson.Result) (schema.Schema, error) {
	var (
		fields schema.Schema
		err    error
	)
	res.ForEach(func(key, value gjson.Result) bool {
		f := schema.Field{
			Key:         key.String(),
			Description: value.Get("description").String(),
			Required:    value.Get("required").Bool(),
			Type:        schema.TypeString,
		}
		if t := value.Get("type").String(); t != "" {
			if f.Type, err = schema.ParseFieldType(t); err != nil {
				err = fmt.Errorf("field %q: %w", f.Key, err)
				return false
			}
		}
		if f.IsArray() {
			items := schema.NewItemsStructure()
			value.Get("items_structure").ForEach(func(k, v gjson.Result) bool {
				items.Set(k.String(), v.String())
				return true
			})
			f.ItemsStructure = items
		}
		fields = append(fields, f)
		return true
	})
	return fields, err
}

// Skeleton renders the data object the sandbox answers with: every key in
// schema order with a null value, or an empty list for array fields. Empty
// and repeated keys are skipped.
func Skeleton(fields schema.Schema) json.RawMessage {
	var buf bytes.Buffer
	buf.WriteByte('{')
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Key == "" || seen[f.Key] {
			continue
		}
		if len(seen) > 0 {
			buf.WriteByte(',')
		}
		seen[f.Key] = true
		key, _ := json.Marshal(f.Key)
		buf.Write(key)
		buf.WriteByte(':')
		if f.IsArray() {
			buf.WriteString("[]")
		} else {
			buf.WriteString("null")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes()
}
