/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package i18n provides the label lookup used for text drawn on the sheet preview.
package i18n

import (
	"sort"

	"golang.org/x/text/language"
)

// Translator maps a label key to display text. Unknown keys come back unchanged.
type Translator func(key string) string

// Identity returns keys unchanged.
func Identity(key string) string { return key }

var catalogs = map[language.Tag]map[string]string{
	language.English: {
		"layout.frontCover": "Front cover",
		"layout.backCover":  "Back cover",
		"layout.page1":      "Page 1",
		"layout.page2":      "Page 2",
		"layout.page3":      "Page 3",
		"layout.page4":      "Page 4",
		"layout.page5":      "Page 5",
		"layout.page6":      "Page 6",
		"grid.swap":         "Swap",
		"grid.placeHere":    "Place here",
	},
	language.German: {
		"layout.frontCover": "Titelseite",
		"layout.backCover":  "Rückseite",
		"layout.page1":      "Seite 1",
		"layout.page2":      "Seite 2",
		"layout.page3":      "Seite 3",
		"layout.page4":      "Seite 4",
		"layout.page5":      "Seite 5",
		"layout.page6":      "Seite 6",
		"grid.swap":         "Tauschen",
		"grid.placeHere":    "Hier ablegen",
	},
	language.French: {
		"layout.frontCover": "Couverture",
		"layout.backCover":  "Quatrième de couverture",
		"layout.page1":      "Page 1",
		"layout.page2":      "Page 2",
		"layout.page3":      "Page 3",
		"layout.page4":      "Page 4",
		"layout.page5":      "Page 5",
		"layout.page6":      "Page 6",
		"grid.swap":         "Échanger",
		"grid.placeHere":    "Placer ici",
	},
}

// supported lists the catalog languages, English first so it wins when nothing matches.
var supported = []language.Tag{language.English, language.German, language.French}

var matcher = language.NewMatcher(supported)

// Match returns the catalog language best matching the given BCP 47 tags
// (e.g. the FZ_LOCALE value or an Accept-Language header).
func Match(tags ...string) language.Tag {
	var want []language.Tag
	for _, s := range tags {
		parsed, _, err := language.ParseAcceptLanguage(s)
		if err != nil {
			continue
		}
		want = append(want, parsed...)
	}
	_, idx, _ := matcher.Match(want...)
	return supported[idx]
}

// ForLocale returns the translator for the best matching catalog.
func ForLocale(tags ...string) Translator {
	cat := catalogs[Match(tags...)]
	return func(key string) string {
		if v, ok := cat[key]; ok {
			return v
		}
		return key
	}
}

// Keys lists the keys of the English catalog in sorted order.
func Keys() []string {
	out := make([]string, 0, len(catalogs[language.English]))
	for k := range catalogs[language.English] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
