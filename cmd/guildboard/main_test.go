package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectOpenArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"guildboard"},
			want: []string{"guildboard"},
		},
		{
			name: "task id first token",
			in:   []string{"guildboard", "task-abc123"},
			want: []string{"guildboard", "open", "task", "task-abc123"},
		},
		{
			name: "project id first token",
			in:   []string{"guildboard", "project-7"},
			want: []string{"guildboard", "open", "project", "project-7"},
		},
		{
			name: "document id first token",
			in:   []string{"guildboard", "doc-readme"},
			want: []string{"guildboard", "open", "document", "doc-readme"},
		},
		{
			name: "id after value flag",
			in:   []string{"guildboard", "--guild", "g1", "task-abc123"},
			want: []string{"guildboard", "--guild", "g1", "open", "task", "task-abc123"},
		},
		{
			name: "id after equals flag",
			in:   []string{"guildboard", "--guild=g1", "task-abc123"},
			want: []string{"guildboard", "--guild=g1", "open", "task", "task-abc123"},
		},
		{
			name: "id after bool flag",
			in:   []string{"guildboard", "--pretty", "task-abc123"},
			want: []string{"guildboard", "--pretty", "open", "task", "task-abc123"},
		},
		{
			name: "id after double dash",
			in:   []string{"guildboard", "--guild", "g1", "--", "task-abc123"},
			want: []string{"guildboard", "--guild", "g1", "--", "open", "task", "task-abc123"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"guildboard", "tasks", "list"},
			want: []string{"guildboard", "tasks", "list"},
		},
		{
			name: "bare prefix not rewritten",
			in:   []string{"guildboard", "task-"},
			want: []string{"guildboard", "task-"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectOpenArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectOpenArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
