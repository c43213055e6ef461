/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"fmt"
	"strings"

	"fanzine/internal/domain"
	"fanzine/internal/photosource"
)

// LoadDocument rebuilds the document from the store. Stored photos get store:<id> URLs.
func LoadDocument(ctx context.Context, s *Store) (*domain.Document, error) {
	doc, _, err := loadDocument(ctx, s)
	return doc, err
}

func loadDocument(ctx context.Context, s *Store) (*domain.Document, Session, error) {
	sess, err := s.LoadSession(ctx)
	if err != nil {
		return nil, sess, err
	}
	doc := domain.NewDocument()
	for _, p := range sess.Photos {
		if len(doc.Photos) >= domain.MaxPhotos {
			break
		}
		doc.Photos = append(doc.Photos, domain.PhotoItem{ID: p.ID, URL: photosource.StoreURL(p.ID)})
	}
	if m := sess.Meta; m != nil {
		doc.SetGap(m.Gap)
		for i, ts := range m.PageTexts {
			if len(ts) > domain.MaxTextsPerPage {
				ts = ts[:domain.MaxTextsPerPage]
			}
			doc.Texts[i] = ts
		}
		if m.Crops != nil {
			for i, c := range m.Crops {
				doc.Crops[i] = domain.NormalizeCrop(c)
			}
		}
	}
	return doc, sess, nil
}

// SaveDocument stores gap, texts and crops, updates the photo order and deletes stored
// photos the document no longer references. Photo bytes are written by the importer.
func SaveDocument(ctx context.Context, s *Store, doc *domain.Document) error {
	crops := doc.CropsOrDefault()
	if err := s.SaveMeta(ctx, Meta{Gap: doc.Gap, PageTexts: doc.Texts, Crops: &crops}); err != nil {
		return err
	}
	keep := map[string]bool{}
	var order []string
	for _, p := range doc.Photos {
		if strings.HasPrefix(p.URL, photosource.StoreScheme) {
			id := strings.TrimPrefix(p.URL, photosource.StoreScheme)
			keep[id] = true
			order = append(order, id)
		}
	}
	sess, err := s.LoadSession(ctx)
	if err != nil {
		return err
	}
	for _, p := range sess.Photos {
		if !keep[p.ID] {
			if err := s.DeletePhoto(ctx, p.ID); err != nil {
				return fmt.Errorf("drop photo %s: %w", p.ID, err)
			}
		}
	}
	return s.SetOrder(ctx, order)
}

// ImportPhoto stores optimized bytes for a new photo and returns its document item.
func ImportPhoto(ctx context.Context, s *Store, id string, data []byte, order int, mime string) (domain.PhotoItem, error) {
	if err := s.SavePhoto(ctx, id, data, order, mime); err != nil {
		return domain.PhotoItem{}, err
	}
	return domain.PhotoItem{ID: id, URL: photosource.StoreURL(id)}, nil
}
