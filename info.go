// Copyright 2025 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package glossary

import (
	"html"
	"regexp"
	"slices"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Well known info keys.
const (
	InfoName                   = "name"
	InfoSourceLang             = "sourceLang"
	InfoTargetLang             = "targetLang"
	InfoDefinitionHasHeadwords = "definition_has_headwords"
)

// SetInfo implements [plugin.Glossary.SetInfo]. Keys keep the order in which
// they were first set.
func (g *Glossary) SetInfo(key, value string) {
	if _, ok := g.info[key]; !ok {
		g.infoKeys = append(g.infoKeys, key)
	}
	g.info[key] = value
}

// Info implements [plugin.Glossary.Info].
func (g *Glossary) Info(key string) string {
	return g.info[key]
}

// InfoKeys implements [plugin.Glossary.InfoKeys].
func (g *Glossary) InfoKeys() []string {
	return slices.Clone(g.infoKeys)
}

// checkDefiHasWordTitle sets whether definitions already start with their
// headwords from the definition_has_headwords info value.
func (g *Glossary) checkDefiHasWordTitle() {
	v := g.info[InfoDefinitionHasHeadwords]
	if v == "" {
		return
	}
	if strings.EqualFold(v, "true") {
		g.defiHasWordTitle = true
		return
	}
	g.logger.Error("bad info value",
		zap.String("key", InfoDefinitionHasHeadwords),
		zap.String("value", v),
	)
}

// WordTitle implements [plugin.Glossary.WordTitle]. Words in a non-Latin
// script are set in <big> and other words in <b>. The writing system is
// detected from sample, or from word if sample is empty.
func (g *Glossary) WordTitle(word, sample, class string) string {
	if g.defiHasWordTitle || word == "" {
		return ""
	}
	if sample == "" {
		sample = word
	}
	tag := titleTag(sample)
	word = html.EscapeString(word)
	if class != "" {
		return "<" + tag + ` class="` + html.EscapeString(class) + `">` + word + "</" + tag + "><br>"
	}
	return "<" + tag + ">" + word + "</" + tag + "><br>"
}

func titleTag(sample string) string {
	for _, r := range sample {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.Is(unicode.Latin, r) {
			return "b"
		}
		return "big"
	}
	return "b"
}

var (
	langNamesOnce sync.Once
	langNames     map[string]string

	langWordRegex  = regexp.MustCompile(`\pL{2,}`)
	langSplitRegex = regexp.MustCompile(`-| to `)
)

// lookupLang returns the English name of the language named or coded by s.
func lookupLang(s string) (string, bool) {
	langNamesOnce.Do(func() {
		langNames = map[string]string{}
		namer := display.English.Languages()
		for _, t := range collate.Supported() {
			base, _ := t.Base()
			name := namer.Name(language.Make(base.String()))
			if name == "" {
				continue
			}
			langNames[strings.ToLower(name)] = name
			langNames[base.String()] = name
			if iso3 := base.ISO3(); iso3 != "" {
				langNames[iso3] = name
			}
		}
	})
	name, ok := langNames[strings.ToLower(s)]
	return name, ok
}

// detectLangsFromName sets the source and target languages from a glossary
// name such as "English-Persian" or "en to fa" unless both are set.
func (g *Glossary) detectLangsFromName() {
	if g.info[InfoSourceLang] != "" && g.info[InfoTargetLang] != "" {
		return
	}
	name := strings.ToLower(g.info[InfoName])
	if name == "" {
		return
	}

	var langs []string
	for _, part := range langSplitRegex.Split(name, -1) {
		for _, w := range langWordRegex.FindAllString(part, -1) {
			if lang, ok := lookupLang(w); ok {
				langs = append(langs, lang)
			}
		}
		if len(langs) >= 2 {
			break
		}
	}
	if len(langs) < 2 {
		return
	}
	if len(langs) > 2 {
		g.logger.Warn("more than two languages in glossary name", zap.Strings("languages", langs))
	}

	g.logger.Info("detected languages from glossary name",
		zap.String("name", name),
		zap.String(InfoSourceLang, langs[0]),
		zap.String(InfoTargetLang, langs[1]),
	)
	g.SetInfo(InfoSourceLang, langs[0])
	g.SetInfo(InfoTargetLang, langs[1])
}
