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

package main

import (
	"io"

	"github.com/cheggaaa/pb/v3"
)

// progressScale is the number of steps of a progress bar.
const progressScale = 10000

const progressTemplate pb.ProgressBarTemplate = `{{string . "title"}} {{bar . "[" "=" ">" " " "]"}} {{percent . }} {{string . "text"}}`

// progressBar shows conversion progress on a terminal.
type progressBar struct {
	w   io.Writer
	bar *pb.ProgressBar
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{w: w}
}

// ProgressInit implements glossary.UI.ProgressInit.
func (p *progressBar) ProgressInit(title string) {
	p.ProgressEnd()
	p.bar = progressTemplate.New(progressScale).
		SetWriter(p.w).
		Set("title", title).
		Start()
}

// Progress implements glossary.UI.Progress.
func (p *progressBar) Progress(ratio float64, text string) {
	if p.bar == nil {
		return
	}
	ratio = min(max(ratio, 0), 1)
	p.bar.SetCurrent(int64(ratio * progressScale))
	p.bar.Set("text", text)
}

// ProgressEnd implements glossary.UI.ProgressEnd.
func (p *progressBar) ProgressEnd() {
	if p.bar == nil {
		return
	}
	p.bar.SetCurrent(progressScale)
	p.bar.Finish()
	p.bar = nil
}
