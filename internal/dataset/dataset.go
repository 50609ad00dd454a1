// Package dataset holds the curated reference data served when no live
// upstream answers: soil profiles and crop recommendations keyed by country,
// weather snapshots keyed by city.
package dataset

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	"gopkg.in/yaml.v3"
)

// CropsPerKey is the number of recommendations every crop entry carries.
const CropsPerKey = 3

//go:embed reference.yaml
var referenceYAML []byte

// Dataset is an immutable, ordered set of reference advisories.
type Dataset struct {
	defaults map[domain.Kind]string

	soilKeys    []string
	soil        map[string]domain.SoilAdvisory
	cropKeys    []string
	crops       map[string][]domain.CropRecommendation
	weatherKeys []string
	weather     map[string]domain.WeatherAdvisory
}

type fileFormat struct {
	Defaults struct {
		Weather string `yaml:"weather"`
		Soil    string `yaml:"soil"`
		Crop    string `yaml:"crop"`
	} `yaml:"defaults"`
	Soil []struct {
		Key                 string `yaml:"key"`
		domain.SoilAdvisory `yaml:",inline"`
	} `yaml:"soil"`
	Crops []struct {
		Key             string                      `yaml:"key"`
		Recommendations []domain.CropRecommendation `yaml:"recommendations"`
	} `yaml:"crops"`
	Weather []struct {
		Key                    string `yaml:"key"`
		domain.WeatherAdvisory `yaml:",inline"`
	} `yaml:"weather"`
}

// Load returns the embedded reference dataset. It fails only if the embedded
// file violates the dataset invariants.
func Load() (*Dataset, error) {
	return Parse(referenceYAML)
}

// Embedded returns the raw embedded YAML document.
func Embedded() []byte {
	return append([]byte(nil), referenceYAML...)
}

// Parse decodes and validates a dataset document.
func Parse(data []byte) (*Dataset, error) {
	d, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reference dataset: %w", err)
	}
	return d, nil
}

// Decode parses a dataset document without checking its invariants.
// Duplicate keys are reported here because they cannot be represented.
func Decode(data []byte) (*Dataset, error) {
	var f fileFormat
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode reference dataset: %w", err)
	}

	d := &Dataset{
		defaults: map[domain.Kind]string{
			domain.KindWeather: f.Defaults.Weather,
			domain.KindSoil:    f.Defaults.Soil,
			domain.KindCrop:    f.Defaults.Crop,
		},
		soil:    make(map[string]domain.SoilAdvisory, len(f.Soil)),
		crops:   make(map[string][]domain.CropRecommendation, len(f.Crops)),
		weather: make(map[string]domain.WeatherAdvisory, len(f.Weather)),
	}

	for _, e := range f.Soil {
		if _, dup := d.soil[e.Key]; dup {
			return nil, fmt.Errorf("duplicate soil key %q", e.Key)
		}
		d.soilKeys = append(d.soilKeys, e.Key)
		d.soil[e.Key] = e.SoilAdvisory
	}
	for _, e := range f.Crops {
		if _, dup := d.crops[e.Key]; dup {
			return nil, fmt.Errorf("duplicate crop key %q", e.Key)
		}
		d.cropKeys = append(d.cropKeys, e.Key)
		d.crops[e.Key] = e.Recommendations
	}
	for _, e := range f.Weather {
		if _, dup := d.weather[e.Key]; dup {
			return nil, fmt.Errorf("duplicate weather key %q", e.Key)
		}
		d.weatherKeys = append(d.weatherKeys, e.Key)
		d.weather[e.Key] = e.WeatherAdvisory
	}
	return d, nil
}

// Validate checks the construction invariants the resolver relies on: every
// default key is present, no key is blank, soil entries list crops, crop
// entries hold exactly CropsPerKey valid recommendations and weather
// snapshots are in range. All violations are returned joined.
func (d *Dataset) Validate() error {
	var errs []error

	for _, kind := range domain.Kinds {
		key := d.defaults[kind]
		if key == "" {
			errs = append(errs, fmt.Errorf("%s: default key not set", kind))
			continue
		}
		if !d.has(kind, key) {
			errs = append(errs, fmt.Errorf("%s: default key %q not in dataset", kind, key))
		}
	}

	for _, k := range d.soilKeys {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, errors.New("soil: blank key"))
			continue
		}
		if err := domain.ValidateSoil(d.soil[k]); err != nil {
			errs = append(errs, fmt.Errorf("soil %q: %w", k, err))
		}
	}
	for _, k := range d.cropKeys {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, errors.New("crop: blank key"))
			continue
		}
		recs := d.crops[k]
		if len(recs) != CropsPerKey {
			errs = append(errs, fmt.Errorf("crop %q: %d recommendations, want %d", k, len(recs), CropsPerKey))
		}
		if err := domain.ValidateCrops(recs); err != nil {
			errs = append(errs, fmt.Errorf("crop %q: %w", k, err))
		}
	}
	for _, k := range d.weatherKeys {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, errors.New("weather: blank key"))
			continue
		}
		if err := domain.ValidateWeather(d.weather[k]); err != nil {
			errs = append(errs, fmt.Errorf("weather %q: %w", k, err))
		}
	}

	return errors.Join(errs...)
}

// Keys returns the keys for kind in declaration order.
func (d *Dataset) Keys(kind domain.Kind) []string {
	switch kind {
	case domain.KindWeather:
		return append([]string(nil), d.weatherKeys...)
	case domain.KindSoil:
		return append([]string(nil), d.soilKeys...)
	case domain.KindCrop:
		return append([]string(nil), d.cropKeys...)
	default:
		return nil
	}
}

// DefaultKey returns the fallback key for kind.
func (d *Dataset) DefaultKey(kind domain.Kind) string {
	return d.defaults[kind]
}

// Soil returns the soil profile stored under key.
func (d *Dataset) Soil(key string) (domain.SoilAdvisory, bool) {
	s, ok := d.soil[key]
	if !ok {
		return domain.SoilAdvisory{}, false
	}
	s.SuitableCrops = append([]string(nil), s.SuitableCrops...)
	return s, true
}

// Crops returns the crop recommendations stored under key.
func (d *Dataset) Crops(key string) ([]domain.CropRecommendation, bool) {
	c, ok := d.crops[key]
	if !ok {
		return nil, false
	}
	return append([]domain.CropRecommendation(nil), c...), true
}

// Weather returns the weather snapshot stored under key.
func (d *Dataset) Weather(key string) (domain.WeatherAdvisory, bool) {
	w, ok := d.weather[key]
	return w, ok
}

func (d *Dataset) has(kind domain.Kind, key string) bool {
	switch kind {
	case domain.KindWeather:
		_, ok := d.weather[key]
		return ok
	case domain.KindSoil:
		_, ok := d.soil[key]
		return ok
	case domain.KindCrop:
		_, ok := d.crops[key]
		return ok
	default:
		return false
	}
}
