// Package config loads subscription and service configuration from TOML:
// decode into an unexported document type, then convert and validate into
// the package's own domain types rather than exposing the TOML shape
// directly.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/tsqldiff/tsqldiff/internal/catalog/mssql"
	"github.com/tsqldiff/tsqldiff/internal/compare"
)

// Subscription pairs one database connection with one file-tree root, plus
// the comparer's include-flags, under a stable id.
type Subscription struct {
	ID         string
	Root       string
	Connection mssql.Config
	Compare    compare.Config
}

// Service is the top-level configuration for a long-running tsqldiff
// process: a set of subscriptions plus the admission gate's per-subscription
// capacity.
type Service struct {
	AdmissionCapacity int
	HistoryRetention  HistoryRetention
	Subscriptions     []Subscription
}

// HistoryRetention configures the storage layer's retention helpers
// (delete-older-than, cap-per-subscription).
type HistoryRetention struct {
	MaxAgeDays         int
	MaxPerSubscription int
}

// document is the literal TOML shape; Load converts it into Service so the
// rest of the program never depends on field-tag details.
type document struct {
	AdmissionCapacity int               `toml:"admission_capacity"`
	History           historyDoc        `toml:"history"`
	Subscription      []subscriptionDoc `toml:"subscription"`
}

type historyDoc struct {
	MaxAgeDays         int `toml:"max_age_days"`
	MaxPerSubscription int `toml:"max_per_subscription"`
}

type subscriptionDoc struct {
	ID         string `toml:"id"`
	Root       string `toml:"root"`
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	User       string `toml:"user"`
	Password   string `toml:"password"`
	Database   string `toml:"database"`
	Tables     *bool  `toml:"tables"`
	Views      *bool  `toml:"views"`
	Procedures *bool  `toml:"procedures"`
	Functions  *bool  `toml:"functions"`
	Triggers   *bool  `toml:"triggers"`
}

// LoadFile opens path and parses it as a service configuration file.
func LoadFile(path string) (Service, error) {
	f, err := os.Open(path)
	if err != nil {
		return Service{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads r as TOML and converts it into a validated Service.
func Load(r io.Reader) (Service, error) {
	var doc document
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return Service{}, fmt.Errorf("config: decode: %w", err)
	}
	return convert(doc)
}

func convert(doc document) (Service, error) {
	svc := Service{
		AdmissionCapacity: doc.AdmissionCapacity,
		HistoryRetention: HistoryRetention{
			MaxAgeDays:         doc.History.MaxAgeDays,
			MaxPerSubscription: doc.History.MaxPerSubscription,
		},
	}
	if svc.AdmissionCapacity <= 0 {
		svc.AdmissionCapacity = 1
	}

	seen := make(map[string]bool, len(doc.Subscription))
	for _, s := range doc.Subscription {
		if s.ID == "" {
			return Service{}, fmt.Errorf("config: subscription is missing id")
		}
		if seen[s.ID] {
			return Service{}, fmt.Errorf("config: duplicate subscription id %q", s.ID)
		}
		seen[s.ID] = true

		if s.Root == "" {
			return Service{}, fmt.Errorf("config: subscription %q is missing root", s.ID)
		}

		port := s.Port
		if port == 0 {
			port = 1433
		}

		svc.Subscriptions = append(svc.Subscriptions, Subscription{
			ID:   s.ID,
			Root: s.Root,
			Connection: mssql.Config{
				Host:     s.Host,
				Port:     port,
				User:     s.User,
				Password: s.Password,
				DbName:   s.Database,
			},
			Compare: compare.Config{
				Tables:     boolOr(s.Tables, true),
				Views:      boolOr(s.Views, true),
				Procedures: boolOr(s.Procedures, true),
				Functions:  boolOr(s.Functions, true),
				Triggers:   boolOr(s.Triggers, true),
			},
		})
	}

	return svc, nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
