package atom

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/andaru/atompub/oderr"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	reDecimal  = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
	reDuration = regexp.MustCompile(`^(-)?P(?:([0-9]+)D)?(?:T(?:([0-9]+)H)?(?:([0-9]+)M)?(?:([0-9]+(?:\.[0-9]+)?)S)?)?$`)

	// Edm.DateTime values carry no zone designator, but one is tolerated
	dateTimeLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		time.RFC3339Nano,
		"2006-01-02T15:04Z07:00",
	}
)

// convertPrimitive converts the text of a primitive value of the named
// type. Types without a conversion keep their text.
func convertPrimitive(typeName, text string) (interface{}, error) {
	v, err := convert(typeName, text)
	if err != nil {
		return nil, errors.WithStack(oderr.InvalidValue(oderr.CodeInvalidPrimitiveValue, text,
			oderr.WithTypeName(typeName), oderr.WithMessage(err.Error())))
	}
	return v, nil
}

func convert(typeName, text string) (interface{}, error) {
	s := strings.TrimSpace(text)
	switch typeName {
	case "", "Edm.String":
		return text, nil
	case "Edm.Boolean":
		switch s {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, errors.New("not a boolean")
	case "Edm.Byte":
		v, err := strconv.ParseUint(s, 10, 8)
		return uint8(v), err
	case "Edm.SByte":
		v, err := strconv.ParseInt(s, 10, 8)
		return int8(v), err
	case "Edm.Int16":
		v, err := strconv.ParseInt(s, 10, 16)
		return int16(v), err
	case "Edm.Int32":
		v, err := strconv.ParseInt(s, 10, 32)
		return int32(v), err
	case "Edm.Int64":
		return strconv.ParseInt(s, 10, 64)
	case "Edm.Single":
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	case "Edm.Double":
		return strconv.ParseFloat(s, 64)
	case "Edm.Decimal":
		if !reDecimal.MatchString(s) {
			return nil, errors.New("not a decimal")
		}
		return s, nil
	case "Edm.DateTime":
		for _, layout := range dateTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, errors.New("not a date and time")
	case "Edm.DateTimeOffset":
		return time.Parse(time.RFC3339Nano, s)
	case "Edm.Time":
		return parseDuration(s)
	case "Edm.Guid":
		return uuid.Parse(s)
	case "Edm.Binary":
		return base64.StdEncoding.DecodeString(s)
	}
	return text, nil
}

// parseDuration parses an XML schema day-time duration such as PT13H20M
func parseDuration(s string) (time.Duration, error) {
	m := reDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || strings.HasSuffix(s, "T") {
		return 0, errors.New("not a duration")
	}
	var d time.Duration
	for i, unit := range []time.Duration{24 * time.Hour, time.Hour, time.Minute} {
		if m[i+2] != "" {
			n, err := strconv.ParseInt(m[i+2], 10, 64)
			if err != nil {
				return 0, err
			}
			d += time.Duration(n) * unit
		}
	}
	if m[5] != "" {
		secs, err := strconv.ParseFloat(m[5], 64)
		if err != nil {
			return 0, err
		}
		d += time.Duration(secs * float64(time.Second))
	}
	if m[1] != "" {
		d = -d
	}
	return d, nil
}
