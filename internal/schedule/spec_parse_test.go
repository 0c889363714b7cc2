package schedule

import (
	"testing"
	"time"
)

func TestParseSpecVariants(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		raw     string
		wantErr bool
		kind    SpecKind
		cron    string
		every   time.Duration
	}{
		{name: "five-field cron", raw: "*/2 * * * *", kind: SpecCron, cron: "*/2 * * * *"},
		{name: "six-field cron", raw: "30 */5 * * * *", kind: SpecCron, cron: "30 */5 * * * *"},
		{name: "descriptor", raw: "@hourly", kind: SpecCron, cron: "@hourly"},
		{name: "at-every", raw: "@every 90s", kind: SpecCron, cron: "@every 90s"},
		{name: "bare duration", raw: "90s", kind: SpecInterval, every: 90 * time.Second},
		{name: "compound duration", raw: "2m30s", kind: SpecInterval, every: 2*time.Minute + 30*time.Second},
		{name: "cron prefix", raw: "cron: */10 * * * *", kind: SpecCron, cron: "*/10 * * * *"},
		{name: "interval prefix", raw: "interval: 45s", kind: SpecInterval, every: 45 * time.Second},
		{name: "every prefix", raw: "every:1m", kind: SpecInterval, every: time.Minute},
		{name: "surrounding spaces", raw: "  90s  ", kind: SpecInterval, every: 90 * time.Second},
		{name: "empty", raw: "", wantErr: true},
		{name: "blank", raw: "   ", wantErr: true},
		{name: "cron prefix empty", raw: "cron:", wantErr: true},
		{name: "interval prefix empty", raw: "interval:   ", wantErr: true},
		{name: "zero interval", raw: "0s", wantErr: true},
		{name: "negative interval", raw: "-5s", wantErr: true},
		{name: "junk", raw: "soonish", wantErr: true},
		{name: "junk after prefix", raw: "every: often", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSpec(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseSpec(%q): expected error, got %+v", tc.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSpec(%q): %v", tc.raw, err)
			}
			if got.Kind != tc.kind {
				t.Fatalf("ParseSpec(%q): kind = %v, want %v", tc.raw, got.Kind, tc.kind)
			}
			if tc.kind == SpecCron && got.Cron != tc.cron {
				t.Fatalf("ParseSpec(%q): cron = %q, want %q", tc.raw, got.Cron, tc.cron)
			}
			if tc.kind == SpecInterval && got.Every != tc.every {
				t.Fatalf("ParseSpec(%q): every = %v, want %v", tc.raw, got.Every, tc.every)
			}
		})
	}
}

func TestCronExpr(t *testing.T) {
	t.Parallel()
	p, err := ParseSpec("90s")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.CronExpr(); got != "@every 1m30s" {
		t.Fatalf("CronExpr = %q", got)
	}

	p, err = ParseSpec("*/2 * * * *")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.CronExpr(); got != "*/2 * * * *" {
		t.Fatalf("CronExpr = %q", got)
	}
}
