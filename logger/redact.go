package logger

import "strings"

// DefaultMaskValue replaces sensitive values in log output.
const DefaultMaskValue = "***"

// RedactorConfig lists the field names whose values are masked. Matching is
// case-insensitive and applies to map keys inside Interface fields as well.
type RedactorConfig struct {
	SensitiveFields []string
	MaskValue       string
}

// DefaultRedactorConfig covers the credential material a mail client moves
// around: bearer tokens, refresh tokens and raw Authorization headers.
func DefaultRedactorConfig() *RedactorConfig {
	return &RedactorConfig{
		SensitiveFields: []string{
			"password", "secret",
			"token", "access_token", "refresh_token", "accesstoken", "refreshtoken",
			"authorization", "auth", "bearer",
			"credential", "credentials",
			"api_key", "apikey",
		},
		MaskValue: DefaultMaskValue,
	}
}

// Redactor masks sensitive fields before they reach log output.
type Redactor struct {
	fields map[string]struct{}
	mask   string
}

// NewRedactor creates a Redactor from the given config; nil selects the
// default config.
func NewRedactor(cfg *RedactorConfig) *Redactor {
	if cfg == nil {
		cfg = DefaultRedactorConfig()
	}
	mask := cfg.MaskValue
	if mask == "" {
		mask = DefaultMaskValue
	}
	fields := make(map[string]struct{}, len(cfg.SensitiveFields))
	for _, f := range cfg.SensitiveFields {
		fields[strings.ToLower(f)] = struct{}{}
	}
	return &Redactor{fields: fields, mask: mask}
}

func (r *Redactor) sensitive(key string) bool {
	_, ok := r.fields[strings.ToLower(key)]
	return ok
}

// String masks the value when the key names a sensitive field.
func (r *Redactor) String(key, value string) string {
	if r.sensitive(key) && value != "" {
		return r.mask
	}
	return value
}

// Bytes masks the value when the key names a sensitive field.
func (r *Redactor) Bytes(key string, value []byte) []byte {
	if r.sensitive(key) && len(value) > 0 {
		return []byte(r.mask)
	}
	return value
}

// Value masks sensitive entries in maps of string keys; other values pass
// through unless their own key is sensitive.
func (r *Redactor) Value(key string, value any) any {
	if r.sensitive(key) {
		return r.mask
	}
	if m, ok := value.(map[string]any); ok {
		return r.Fields(m)
	}
	if m, ok := value.(map[string]string); ok {
		out := make(map[string]string, len(m))
		for k, v := range m {
			out[k] = r.String(k, v)
		}
		return out
	}
	return value
}

// Fields returns a copy of fields with sensitive entries masked.
func (r *Redactor) Fields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = r.Value(k, v)
	}
	return out
}
