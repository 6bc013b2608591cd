package record

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// TimeLayout is the human-readable timestamp format written into the
// generated file: zero-padded day, 24-hour clock.
const TimeLayout = "January 02, 2006 15:04:05"

// Core field keys, in their fixed serialization order.
const (
	KeyHash      = "hash"
	KeyUser      = "user"
	KeyVersion   = "version"
	KeyTimestamp = "timestamp"
)

// MetadataSource resolves the two source-control lookups. Both calls are
// independent and may run concurrently.
type MetadataSource interface {
	CurrentUser(ctx context.Context) Value
	CurrentRevision(ctx context.Context) Value
}

// Selection controls which core fields are assembled. The zero value
// suppresses everything; use All for the default behaviour.
type Selection struct {
	Hash      bool
	User      bool
	Version   bool
	Timestamp bool
}

// All selects every core field.
func All() Selection {
	return Selection{Hash: true, User: true, Version: true, Timestamp: true}
}

// Extra is a configuration-defined field appended after the core fields.
// Template is rendered with sprig functions; render failure keeps the key
// with an absent value.
type Extra struct {
	Key      string
	Template string
}

// Assembler builds a Record from its collaborators.
type Assembler struct {
	Source          MetadataSource
	ManifestVersion func() Value
	Now             func() time.Time
	Extras          []Extra
	Log             *slog.Logger
}

// Assemble produces the record for the given selection. Core fields keep
// the fixed order hash, user, version, timestamp regardless of which are
// selected; the two git lookups are issued concurrently when both are
// wanted.
func (a Assembler) Assemble(ctx context.Context, sel Selection) Record {
	var hash, user Value
	switch {
	case sel.Hash && sel.User:
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			hash = a.Source.CurrentRevision(ctx)
		}()
		go func() {
			defer wg.Done()
			user = a.Source.CurrentUser(ctx)
		}()
		wg.Wait()
	case sel.Hash:
		hash = a.Source.CurrentRevision(ctx)
	case sel.User:
		user = a.Source.CurrentUser(ctx)
	}

	var rec Record
	if sel.Hash {
		rec.add(KeyHash, hash)
	}
	if sel.User {
		rec.add(KeyUser, user)
	}
	if sel.Version {
		rec.add(KeyVersion, a.manifestVersion())
	}
	if sel.Timestamp {
		rec.add(KeyTimestamp, Present(a.now().Format(TimeLayout)))
	}
	for _, extra := range a.Extras {
		rec.add(extra.Key, a.renderExtra(extra, rec))
	}
	return rec
}

// Placeholder builds the --init scaffold record with sample values and a
// live timestamp.
func Placeholder(now time.Time) Record {
	var rec Record
	rec.add(KeyHash, Present("dev"))
	rec.add(KeyUser, Present("Jane Doe"))
	rec.add(KeyVersion, Present("1.0.0"))
	rec.add(KeyTimestamp, Present(now.Format(TimeLayout)))
	return rec
}

func (a Assembler) renderExtra(extra Extra, rec Record) Value {
	tmpl, err := template.New(extra.Key).Funcs(sprig.TxtFuncMap()).Parse(extra.Template)
	if err != nil {
		a.logger().Error("parse extra field template", "key", extra.Key, "err", err)
		return Absent()
	}
	tmpl.Option("missingkey=zero")

	data := map[string]interface{}{}
	for _, f := range rec.Fields {
		if f.Value.OK {
			data[f.Key] = f.Value.Str
		} else {
			data[f.Key] = ""
		}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		a.logger().Error("render extra field", "key", extra.Key, "err", err)
		return Absent()
	}
	return Present(strings.TrimRight(buf.String(), "\r\n"))
}

func (a Assembler) manifestVersion() Value {
	if a.ManifestVersion == nil {
		return Absent()
	}
	return a.ManifestVersion()
}

func (a Assembler) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a Assembler) logger() *slog.Logger {
	if a.Log == nil {
		return slog.Default()
	}
	return a.Log
}
