package doctor

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type rosterFile struct {
	Doctors []Doctor `mapstructure:"doctors"`
}

// LoadRoster reads a roster file (yaml, json or toml, by extension) and returns
// a viper instance that can later be watched.
func LoadRoster(path string) ([]Doctor, *viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read roster %s: %w", path, err)
	}

	doctors, err := decodeRoster(v)
	if err != nil {
		return nil, nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return doctors, v, nil
}

// WatchRoster reloads store whenever the roster file behind v changes. An
// invalid edit is logged and the previous roster stays in place.
func WatchRoster(v *viper.Viper, store *MemoryStore) {
	v.OnConfigChange(func(e fsnotify.Event) {
		doctors, err := decodeRoster(v)
		if err != nil {
			log.Printf("[roster] reload %s failed, keep previous roster: %v", e.Name, err)
			return
		}
		store.Replace(doctors)
		log.Printf("[roster] reloaded %d doctors from %s", len(doctors), e.Name)
	})
	v.WatchConfig()
}

func decodeRoster(v *viper.Viper) ([]Doctor, error) {
	var file rosterFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, err
	}
	if len(file.Doctors) == 0 {
		return nil, fmt.Errorf("no doctors listed")
	}

	seen := make(map[string]bool, len(file.Doctors))
	for i := range file.Doctors {
		d := &file.Doctors[i]
		if d.ID == "" || d.Name == "" {
			return nil, fmt.Errorf("doctor #%d: id and name are required", i+1)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("duplicate doctor id %q", d.ID)
		}
		seen[d.ID] = true

		from, errFrom := time.Parse(ClockLayout, strings.TrimSpace(d.AvailableFrom))
		to, errTo := time.Parse(ClockLayout, strings.TrimSpace(d.AvailableTo))
		if errFrom != nil || errTo != nil || !from.Before(to) {
			return nil, fmt.Errorf("doctor %q: invalid working hours %q-%q", d.ID, d.AvailableFrom, d.AvailableTo)
		}
		// "9:00" 统一成 "09:00"
		d.AvailableFrom = from.Format(ClockLayout)
		d.AvailableTo = to.Format(ClockLayout)
	}
	return file.Doctors, nil
}
