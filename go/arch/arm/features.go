package arm

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type features struct {
	pmu    bool
	hasEL3 bool
}

// -cpu feature settings apply to every CPU of the type created afterwards
var (
	featureLock sync.Mutex
	typeFeature = make(map[string]features)
)

func setDefaults(typeName string, f features) {
	featureLock.Lock()
	typeFeature[typeName] = f
	featureLock.Unlock()
}

func featuresOf(typeName string) features {
	featureLock.Lock()
	defer featureLock.Unlock()
	return typeFeature[typeName]
}

func parseBool(name, val string) (bool, error) {
	switch val {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, errors.Errorf("invalid value '%s' for '%s' (expected on or off)", val, name)
}

// parseFeatures accepts "name=on|off" and "+name"/"-name" items.
func parseFeatures(typeName, list string) error {
	if list == "" {
		return nil
	}
	featureLock.Lock()
	defer featureLock.Unlock()
	f := typeFeature[typeName]
	for _, item := range strings.Split(list, ",") {
		var name string
		var on bool
		switch {
		case strings.HasPrefix(item, "+"):
			name, on = item[1:], true
		case strings.HasPrefix(item, "-"):
			name, on = item[1:], false
		default:
			pieces := strings.SplitN(item, "=", 2)
			if len(pieces) != 2 {
				return errors.Errorf("expected name=value, got '%s'", item)
			}
			var err error
			name = pieces[0]
			if on, err = parseBool(name, pieces[1]); err != nil {
				return err
			}
		}
		switch strings.Replace(name, "-", "_", -1) {
		case "pmu":
			f.pmu = on
		case "has_el3":
			f.hasEL3 = on
		default:
			return errors.Errorf("property '%s' not found", name)
		}
	}
	typeFeature[typeName] = f
	return nil
}
