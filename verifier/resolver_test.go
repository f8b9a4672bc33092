package verifier

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

type fakeMXLookup struct {
	records map[string][]*net.MX
	err     error
	queried []string
}

func (f *fakeMXLookup) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	f.queried = append(f.queried, name)
	if f.err != nil {
		return nil, f.err
	}
	return f.records[name], nil
}

func TestResolverMXHost(t *testing.T) {
	tests := []struct {
		name    string
		records []*net.MX
		err     error
		want    string
	}{
		{
			name: "single record",
			records: []*net.MX{
				{Host: "mx.example.com.", Pref: 10},
			},
			want: "mx.example.com",
		},
		{
			name: "lowest preference wins",
			records: []*net.MX{
				{Host: "backup.example.com.", Pref: 20},
				{Host: "primary.example.com.", Pref: 5},
				{Host: "other.example.com.", Pref: 10},
			},
			want: "primary.example.com",
		},
		{
			name:    "null MX",
			records: []*net.MX{{Host: ".", Pref: 0}},
			want:    "",
		},
		{
			name: "no records",
			want: "",
		},
		{
			name: "resolution error",
			err:  errors.New("no such host"),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &fakeMXLookup{records: map[string][]*net.MX{"example.com": tt.records}, err: tt.err}
			r := &Resolver{lookup: lookup, timeout: time.Second}

			if got := r.MXHost(context.Background(), "example.com"); got != tt.want {
				t.Fatalf("MXHost = %q, want %q", got, tt.want)
			}
		})
	}
}
