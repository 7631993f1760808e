package products

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	FieldNombre           = "nombre"
	FieldCategoria        = "categoria"
	FieldDescripcion      = "descripcion"
	FieldPrecio           = "precio"
	FieldCantidad         = "cantidad"
	FieldFechaVencimiento = "fecha_vencimiento"
)

const (
	CodeRequired   = "required"
	CodeInvalid    = "invalid"
	CodeOutOfRange = "out_of_range"
	CodeFormat     = "format"
)

// ExpirationLayout is the accepted layout of fecha_vencimiento.
const ExpirationLayout = "2006-01-02"

const (
	msgNameRequired      = "name is required"
	msgCategoryRequired  = "category is required"
	msgPriceRequired     = "price is required"
	msgPriceInvalid      = "price must be a valid number"
	msgPriceNegative     = "price must be greater than or equal to 0"
	msgQuantityRequired  = "quantity is required"
	msgQuantityInvalid   = "quantity must be a valid integer"
	msgQuantityNegative  = "quantity must be greater than or equal to 0"
	msgExpirationInvalid = "expiration date must have format YYYY-MM-DD"
)

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors []FieldError

func (v ValidationErrors) Messages() []string {
	out := make([]string, 0, len(v))
	for _, fe := range v {
		out = append(out, fe.Message)
	}
	return out
}

// ValidationError is returned by the service when an input is rejected.
type ValidationError struct {
	Errors ValidationErrors
}

func (e *ValidationError) Error() string {
	return "invalid product: " + strings.Join(e.Errors.Messages(), "; ")
}

// Fields is a validated input with every value converted to its stored type.
type Fields struct {
	Nombre           string
	Categoria        string
	Descripcion      string
	Precio           float64
	Cantidad         int
	FechaVencimiento string
}

// Validate checks a raw input against the product rules and returns every
// violation in rule order. An empty result means the input is acceptable.
//
// "Missing" follows truthiness: absent, null, false, "", numeric zero and
// empty arrays or objects all count as missing. A JSON number 0 for precio or
// cantidad is therefore reported as required, while the string "0" is valid.
func Validate(in Input) ValidationErrors {
	errs := ValidationErrors{}

	if !truthy(in[FieldNombre]) {
		errs = append(errs, FieldError{Field: FieldNombre, Code: CodeRequired, Message: msgNameRequired})
	}

	if !truthy(in[FieldCategoria]) {
		errs = append(errs, FieldError{Field: FieldCategoria, Code: CodeRequired, Message: msgCategoryRequired})
	}

	if v := in[FieldPrecio]; !truthy(v) {
		errs = append(errs, FieldError{Field: FieldPrecio, Code: CodeRequired, Message: msgPriceRequired})
	} else if price, ok := parseFloat(v); !ok {
		errs = append(errs, FieldError{Field: FieldPrecio, Code: CodeInvalid, Message: msgPriceInvalid})
	} else if price < 0 {
		errs = append(errs, FieldError{Field: FieldPrecio, Code: CodeOutOfRange, Message: msgPriceNegative})
	}

	if v := in[FieldCantidad]; !truthy(v) {
		errs = append(errs, FieldError{Field: FieldCantidad, Code: CodeRequired, Message: msgQuantityRequired})
	} else if qty, ok := parseInt(v); !ok {
		errs = append(errs, FieldError{Field: FieldCantidad, Code: CodeInvalid, Message: msgQuantityInvalid})
	} else if qty < 0 {
		errs = append(errs, FieldError{Field: FieldCantidad, Code: CodeOutOfRange, Message: msgQuantityNegative})
	}

	if v := in[FieldFechaVencimiento]; truthy(v) {
		s, isString := v.(string)
		if !isString {
			errs = append(errs, FieldError{Field: FieldFechaVencimiento, Code: CodeFormat, Message: msgExpirationInvalid})
		} else if _, err := time.Parse(ExpirationLayout, s); err != nil {
			errs = append(errs, FieldError{Field: FieldFechaVencimiento, Code: CodeFormat, Message: msgExpirationInvalid})
		}
	}

	return errs
}

// Parse validates in and converts it into typed fields. Any violation is
// reported as a *ValidationError carrying the full list.
func Parse(in Input) (Fields, error) {
	if errs := Validate(in); len(errs) > 0 {
		return Fields{}, &ValidationError{Errors: errs}
	}

	price, _ := parseFloat(in[FieldPrecio])
	qty, _ := parseInt(in[FieldCantidad])

	return Fields{
		Nombre:           text(in[FieldNombre]),
		Categoria:        text(in[FieldCategoria]),
		Descripcion:      text(in[FieldDescripcion]),
		Precio:           price,
		Cantidad:         qty,
		FechaVencimiento: text(in[FieldFechaVencimiento]),
	}, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func parseFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case string:
		raw := strings.TrimSpace(t)
		if hexPrefixed(raw) {
			return 0, false
		}
		f, err := strconv.ParseFloat(raw, 64)
		return f, err == nil && finite(f)
	case json.Number:
		f, err := t.Float64()
		return f, err == nil && finite(f)
	case float64:
		return t, finite(t)
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// finite rejects NaN and the infinities, which cannot be stored as JSON.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// hexPrefixed reports hex float literals such as "0x1p-2". Prices are
// decimal only.
func hexPrefixed(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func parseInt(v any) (int, bool) {
	switch t := v.(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return truncate(f)
	case float64:
		return truncate(t)
	case int:
		return t, true
	case int64:
		return int(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func truncate(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int(math.Trunc(f)), true
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
