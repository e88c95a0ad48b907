// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package recommend

import (
	"github.com/tomtom215/trackpool/internal/models"
)

// noTag stands in for tracks without tags.
const noTag = "none"

// categoryIndex assigns dense ids to strings in first-seen order.
type categoryIndex struct {
	ids map[string]int
}

func newCategoryIndex() *categoryIndex {
	return &categoryIndex{ids: make(map[string]int)}
}

func (c *categoryIndex) id(value string) int {
	if id, ok := c.ids[value]; ok {
		return id
	}
	id := len(c.ids)
	c.ids[value] = id
	return id
}

// featureEncoder maps tracks to (artistId, tagId) rows.
type featureEncoder struct {
	artists *categoryIndex
	tags    *categoryIndex
}

// newFeatureEncoder seeds the id spaces from the pool so ids follow pool order.
func newFeatureEncoder(pool []models.Track) *featureEncoder {
	e := &featureEncoder{artists: newCategoryIndex(), tags: newCategoryIndex()}
	for i := range pool {
		e.encode(models.Normalize(pool[i].Artist), primaryTag(&pool[i]))
	}
	return e
}

func (e *featureEncoder) encode(artist, tag string) []float64 {
	return []float64{float64(e.artists.id(artist)), float64(e.tags.id(tag))}
}

func (e *featureEncoder) track(t *models.Track) []float64 {
	return e.encode(models.Normalize(t.Artist), primaryTag(t))
}

// label encodes a feedback label, borrowing the tag of the pooled track when
// there is one.
func (e *featureEncoder) label(fb *models.Feedback, pooled map[models.TrackKey]*models.Track) []float64 {
	if t, ok := pooled[fb.Key()]; ok {
		return e.track(t)
	}
	return e.encode(models.Normalize(fb.Artist), noTag)
}

func primaryTag(t *models.Track) string {
	if tag := t.PrimaryTag(); tag != "" {
		return tag
	}
	return noTag
}
