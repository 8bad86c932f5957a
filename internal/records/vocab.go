package records

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultTopics is the controlled vocabulary seeded into a fresh corpus.
// Administrators extend it by inserting rows into the topics table.
var DefaultTopics = []string{
	"Anatomy",
	"Biochemistry",
	"Medicine",
	"Microbiology",
	"Obstetrics and Gynaecology",
	"Paediatrics",
	"Pathology",
	"Pharmacology",
	"Physiology",
	"Surgery",
}

// DefaultCohorts is the controlled vocabulary of exam-sitting labels.
var DefaultCohorts = []string{
	"January",
	"May",
	"September",
	"unknown",
}

const (
	vocabTopicsKey  = "topics"
	vocabCohortsKey = "cohorts"
)

// Vocabulary serves the controlled topic and cohort lists with a short-lived
// cache in front of the store, since every page prompt embeds both lists.
type Vocabulary struct {
	store Store
	cache *cache.Cache
}

// NewVocabulary wraps a store with a 5-minute vocabulary cache.
func NewVocabulary(store Store) *Vocabulary {
	return &Vocabulary{
		store: store,
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Topics returns the allowed topical tags.
func (v *Vocabulary) Topics(ctx context.Context) ([]string, error) {
	if cached, ok := v.cache.Get(vocabTopicsKey); ok {
		return cached.([]string), nil
	}
	topics, err := v.store.Topics(ctx)
	if err != nil {
		return nil, err
	}
	v.cache.SetDefault(vocabTopicsKey, topics)
	return topics, nil
}

// Cohorts returns the allowed cohort labels.
func (v *Vocabulary) Cohorts(ctx context.Context) ([]string, error) {
	if cached, ok := v.cache.Get(vocabCohortsKey); ok {
		return cached.([]string), nil
	}
	cohorts, err := v.store.Cohorts(ctx)
	if err != nil {
		return nil, err
	}
	v.cache.SetDefault(vocabCohortsKey, cohorts)
	return cohorts, nil
}

// Invalidate drops cached lists, forcing the next read through to the store.
func (v *Vocabulary) Invalidate() {
	v.cache.Delete(vocabTopicsKey)
	v.cache.Delete(vocabCohortsKey)
}
