package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/syntaxrules/config"
	"github.com/c360studio/syntaxrules/export"
	"github.com/c360studio/syntaxrules/graph"
	"github.com/c360studio/syntaxrules/tree"
)

const document = `{
  "tokens": [
    {"id": 1, "sentence": 1, "lemma": "dog", "word": "dog", "pos": "N"},
    {"id": 2, "sentence": 1, "lemma": "bark", "word": "barks", "pos": "V"}
  ],
  "dependencies": [
    {"child": 1, "parent": 2, "relation": "nsubj"}
  ]
}`

const grammar = `
name: grammar
lexicon:
  - lexclass: animal
    lemma: [dog, cat]
    pos: N
rules:
  - name: agent
    condition: "?x :rel_nsubj ?y . ?x :lexclass \"animal\""
    insert: "?y :agent ?x"
`

// badRule does not parse: its only pattern lacks an object.
const badRule = "rules:\n  - condition: \"?x :lemma\"\n    insert: \"?x :seen \\\"yes\\\"\"\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestApp(t *testing.T, modify func(*config.Config)) (*App, string) {
	t.Helper()
	dir := t.TempDir()
	safPath := filepath.Join(dir, "article.json")
	writeFile(t, safPath, document)
	writeFile(t, filepath.Join(dir, "rules", "grammar.yaml"), grammar)

	cfg := config.DefaultConfig()
	cfg.Rules.Paths = []string{filepath.Join(dir, "rules", "*.yaml")}
	if modify != nil {
		modify(cfg)
	}
	require.NoError(t, cfg.Validate())

	app, err := NewApp(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return app, safPath
}

func TestAppRun(t *testing.T) {
	app, safPath := newTestApp(t, nil)

	res, err := app.Run(context.Background(), Request{SAFPath: safPath, Sentence: 1, Format: export.FormatMinimal})
	require.NoError(t, err)
	require.Len(t, res.Reports, 1)
	assert.Equal(t, "grammar", res.Reports[0].Ruleset)
	assert.Equal(t, 1, res.Reports[0].LexiconMatches)
	assert.NotEmpty(t, res.RunID)

	var edges []tree.MinimalEdge
	require.NoError(t, json.Unmarshal(res.Output, &edges))
	assert.ElementsMatch(t, []tree.MinimalEdge{
		{Subject: "1", Predicate: "rel_nsubj", Object: "2"},
		{Subject: "2", Predicate: "agent", Object: "1"},
	}, edges)
}

func TestAppRunFormats(t *testing.T) {
	app, safPath := newTestApp(t, nil)

	tests := []struct {
		format export.Format
		want   string
	}{
		{export.FormatNTriples, `"animal"`},
		{export.FormatTurtle, `:lexclass "animal"`},
		{export.FormatJSONLD, `"@vocab"`},
		{export.FormatJSON, `"predicate": "agent"`},
		{export.FormatDOT, "digraph"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			res, err := app.Run(context.Background(), Request{SAFPath: safPath, Sentence: 1, Format: tt.format})
			require.NoError(t, err)
			assert.Contains(t, string(res.Output), tt.want)
		})
	}
}

func TestAppRunErrors(t *testing.T) {
	t.Run("missing saf", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		_, err := app.Run(context.Background(), Request{SAFPath: "/does/not/exist.json", Sentence: 1, Format: export.FormatJSON})
		assert.ErrorContains(t, err, "open saf")
	})

	t.Run("no rulesets", func(t *testing.T) {
		app, safPath := newTestApp(t, func(c *config.Config) {
			c.Rules.Paths = []string{filepath.Join(t.TempDir(), "*.yaml")}
		})
		_, err := app.Run(context.Background(), Request{SAFPath: safPath, Sentence: 1, Format: export.FormatJSON})
		assert.ErrorContains(t, err, "load rules")
	})

	t.Run("bad rule aborts", func(t *testing.T) {
		app, safPath := newTestApp(t, nil)
		writeFile(t, filepath.Join(filepath.Dir(safPath), "rules", "z.yaml"), badRule)
		res, err := app.Run(context.Background(), Request{SAFPath: safPath, Sentence: 1, Format: export.FormatJSON})
		require.Error(t, err)
		require.Len(t, res.Reports, 2)
		assert.Len(t, res.Reports[1].Failed(), 1)
	})

	t.Run("bad rule continues", func(t *testing.T) {
		app, safPath := newTestApp(t, func(c *config.Config) { c.Rules.ContinueOnError = true })
		writeFile(t, filepath.Join(filepath.Dir(safPath), "rules", "z.yaml"), badRule)
		res, err := app.Run(context.Background(), Request{SAFPath: safPath, Sentence: 1, Format: export.FormatJSON})
		require.NoError(t, err)
		assert.Len(t, res.Reports[1].Failed(), 1)
		assert.NotEmpty(t, res.Output)
	})
}

func TestWriteMetrics(t *testing.T) {
	app, safPath := newTestApp(t, nil)
	_, err := app.Run(context.Background(), Request{SAFPath: safPath, Sentence: 1, Format: export.FormatJSON})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, app.WriteMetrics(&buf))
	assert.Contains(t, buf.String(), "syntaxrules_rules_applied_total")
	assert.Contains(t, buf.String(), "syntaxrules_lexicon_matches_total 1")
}

func TestConnectNATSRequiresURL(t *testing.T) {
	app, _ := newTestApp(t, nil)
	assert.ErrorContains(t, app.ConnectNATS(context.Background()), "nats.url")
}

func TestApplyOverrides(t *testing.T) {
	t.Setenv("NATS_URL", "")
	cfg := config.DefaultConfig()
	applyOverrides(cfg, &options{
		rules:           []string{"a.yaml"},
		format:          "dot",
		continueOnError: true,
		natsURL:         "nats://example:4222",
	})
	assert.Equal(t, []string{"a.yaml"}, cfg.Rules.Paths)
	assert.Equal(t, "dot", cfg.Output.Format)
	assert.True(t, cfg.Rules.ContinueOnError)
	assert.Equal(t, "nats://example:4222", cfg.NATS.URL)
}

func TestApplyCommand(t *testing.T) {
	dir := t.TempDir()
	safPath := filepath.Join(dir, "article.json")
	writeFile(t, safPath, document)
	rulesPath := filepath.Join(dir, "grammar.yaml")
	writeFile(t, rulesPath, grammar)
	cfgPath := filepath.Join(dir, "syntaxrules.yaml")
	writeFile(t, cfgPath, "log:\n  level: error\n")

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"apply", "--config", cfgPath, "--saf", safPath, "--rules", rulesPath, "--format", "minimal"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"predicate": "agent"`)
}

func TestApplyCommandRelativeRules(t *testing.T) {
	dir := t.TempDir()
	safPath := filepath.Join(dir, "article.json")
	writeFile(t, safPath, document)
	writeFile(t, filepath.Join(dir, "grammar", "agent.yaml"), grammar)
	cfgPath := filepath.Join(dir, "syntaxrules.yaml")
	writeFile(t, cfgPath, "rules:\n  paths:\n    - grammar/*.yaml\nlog:\n  level: error\n")

	// Rule paths resolve against the config file, not the working directory
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"apply", "--config", cfgPath, "--saf", safPath, "--format", "minimal"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"predicate": "agent"`)
}

type recordingConn struct {
	subjects []string
	data     [][]byte
}

func (r *recordingConn) Publish(_ context.Context, subject string, data []byte) error {
	r.subjects = append(r.subjects, subject)
	r.data = append(r.data, data)
	return nil
}

func TestAppRunPublishes(t *testing.T) {
	app, safPath := newTestApp(t, nil)
	conn := &recordingConn{}
	app.publisher = graph.NewPublisher(conn, app.cfg.NATS.Subject, app.logger)

	res, err := app.Run(context.Background(), Request{SAFPath: safPath, Sentence: 1, Format: export.FormatJSON})
	require.NoError(t, err)
	require.Len(t, conn.subjects, 1)
	assert.Equal(t, graph.DefaultSubject, conn.subjects[0])

	var msg struct {
		RunID   string `json:"run_id"`
		Triples []struct {
			Predicate string `json:"predicate"`
		} `json:"triples"`
	}
	require.NoError(t, json.Unmarshal(conn.data[0], &msg))
	assert.Equal(t, res.RunID, msg.RunID)
	assert.Len(t, msg.Triples, len(res.Facts))
}

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), appName+" version "+Version)
}

func TestRulesWatcher(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "grammar.yaml")
	writeFile(t, rulesPath, grammar)

	w, err := NewRulesWatcher([]string{filepath.Join(dir, "*.yaml")}, nil, 20*time.Millisecond, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	assert.True(t, w.relevant(rulesPath))
	assert.False(t, w.relevant(filepath.Join(dir, "notes.md")))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changed := make(chan []string, 1)
	go func() {
		_ = w.Run(ctx, func(ctx context.Context, paths []string) {
			select {
			case changed <- paths:
			default:
			}
		})
	}()

	// Give the watcher loop a moment to start
	time.Sleep(50 * time.Millisecond)
	writeFile(t, rulesPath, grammar+"\n")

	select {
	case paths := <-changed:
		assert.Contains(t, paths, rulesPath)
	case <-ctx.Done():
		t.Fatal("no change reported")
	}
}
