package store

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Encode turns a typed value into a Record using its json tags.
func Encode(v any) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRecord, err.Error())
	}
	rec, err := unmarshalRecord(raw)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRecord, err.Error())
	}
	return rec, nil
}

// Decode fills out from a Record, matching fields by json tag.
func Decode(rec Record, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		Squash:           true,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			decimalHook(),
		),
	})
	if err != nil {
		return errors.Wrap(err, "new decoder")
	}
	if err := dec.Decode(map[string]any(rec)); err != nil {
		return errors.Wrap(ErrInvalidRecord, err.Error())
	}
	return nil
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalHook accepts the string and number forms money takes after a JSON round trip.
func decimalHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != decimalType {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			if v == "" {
				return decimal.Zero, nil
			}
			return decimal.NewFromString(v)
		case float64:
			return decimal.NewFromFloat(v), nil
		case float32:
			return decimal.NewFromFloat32(v), nil
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		case json.Number:
			return decimal.NewFromString(v.String())
		case nil:
			return decimal.Zero, nil
		default:
			return data, nil
		}
	}
}
