package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/xvierd/gitlanes/internal/config"
	"github.com/xvierd/gitlanes/internal/view"
)

// useTempHome points config, database and logs at a fresh directory.
func useTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.HomeEnv, home)
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Cleanup(resetFlags)
	return home
}

func createRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
	dir := t.TempDir()
	runGit(t, dir, "init", "-q", "-b", "main")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "commit.gpgsign", "false")
	return dir
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.CommandContext(context.Background(), "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

// run executes gitlanes against repo and resets the flags afterwards.
func run(t *testing.T, repo string, args ...string) (string, error) {
	t.Helper()
	defer resetFlags()
	// post-run hooks are skipped when a command fails
	defer func() { _ = cleanupServices() }()
	stdout, _, err := executeCmd(rootCmd, append([]string{"--repo", repo}, args...)...)
	return stdout, err
}

func TestCommands_StageCommitAndInspect(t *testing.T) {
	useTempHome(t)
	repo := createRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "a.txt"), []byte("one\n"), 0o644))

	out, err := run(t, repo, "stage", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "Staged a.txt\n", out)

	out, err = run(t, repo, "status", "--json")
	require.NoError(t, err)
	var status view.Status
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	require.Len(t, status.Staged, 1)
	assert.Equal(t, "a.txt", status.Staged[0].Path)

	out, err = run(t, repo, "commit", "-m", "first commit")
	require.NoError(t, err)
	assert.Contains(t, out, "first commit")

	out, err = run(t, repo, "log", "--json")
	require.NoError(t, err)
	var nodes []view.Node
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	require.Len(t, nodes, 1)
	assert.Equal(t, "first commit", nodes[0].Subject)
	assert.Equal(t, 0, nodes[0].Lane)

	out, err = run(t, repo, "graph")
	require.NoError(t, err)
	assert.Contains(t, out, "●")
	assert.Contains(t, out, "first commit")

	out, err = run(t, repo, "graph", "--at", "20,25", "--json")
	require.NoError(t, err)
	var sel view.Selection
	require.NoError(t, json.Unmarshal([]byte(out), &sel))
	assert.True(t, sel.Found)
	require.NotNil(t, sel.Node)
	assert.Equal(t, nodes[0].Hash, sel.Node.Hash)

	out, err = run(t, repo, "graph", "--at", "500,500")
	require.NoError(t, err)
	assert.Equal(t, "No commit at 500,500\n", out)

	out, err = run(t, repo, "show", nodes[0].Short)
	require.NoError(t, err)
	assert.Contains(t, out, "first commit")

	out, err = run(t, repo, "branches", "--json")
	require.NoError(t, err)
	var info view.Repository
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "main", info.Branch)
	require.Len(t, info.Branches, 1)
	assert.True(t, info.Branches[0].IsHead)
}

func TestCommands_DiffDiscardAndClean(t *testing.T) {
	useTempHome(t)
	repo := createRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "a.txt"), []byte("one\n"), 0o644))
	runGit(t, repo, "add", "a.txt")
	runGit(t, repo, "commit", "-q", "-m", "initial")

	require.NoError(t, os.WriteFile(filepath.Join(repo, "a.txt"), []byte("two\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "junk.txt"), []byte("junk\n"), 0o644))

	out, err := run(t, repo, "diff", "a.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "+two")

	out, err = run(t, repo, "diff", "--cached", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "No changes.\n", out)

	saved := confirmFunc
	t.Cleanup(func() { confirmFunc = saved })
	var asked []string
	confirmFunc = func(title string) bool {
		asked = append(asked, title)
		return false
	}

	_, err = run(t, repo, "discard", "a.txt")
	assert.ErrorIs(t, err, errAborted)
	assert.Equal(t, []string{"Discard changes to a.txt?"}, asked)
	content, _ := os.ReadFile(filepath.Join(repo, "a.txt"))
	assert.Equal(t, "two\n", string(content))

	out, err = run(t, repo, "discard", "--yes", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "Discarded a.txt\n", out)
	content, _ = os.ReadFile(filepath.Join(repo, "a.txt"))
	assert.Equal(t, "one\n", string(content))

	out, err = run(t, repo, "clean", "-y", "junk.txt")
	require.NoError(t, err)
	assert.Equal(t, "Removed junk.txt\n", out)
	assert.NoFileExists(t, filepath.Join(repo, "junk.txt"))
	assert.Len(t, asked, 1)

	out, err = run(t, repo, "history-ops", "--json")
	require.NoError(t, err)
	var ops struct {
		Operations []struct {
			Operation string `json:"operation"`
			Success   bool   `json:"success"`
		} `json:"operations"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ops))
	require.Equal(t, 2, ops.Count)
	assert.Equal(t, "Clean", ops.Operations[0].Operation)
	assert.Equal(t, "Discard", ops.Operations[1].Operation)
	assert.True(t, ops.Operations[0].Success)
}

func TestCommands_CommitRejectsEmptyIndex(t *testing.T) {
	useTempHome(t)
	repo := createRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "a.txt"), []byte("one\n"), 0o644))

	_, err := run(t, repo, "commit", "-m", "nothing staged")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files staged")
}

func TestCommands_CommitPromptsForMessage(t *testing.T) {
	useTempHome(t)
	repo := createRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "a.txt"), []byte("one\n"), 0o644))
	runGit(t, repo, "add", "a.txt")

	saved := promptFunc
	t.Cleanup(func() { promptFunc = saved })
	promptFunc = func(title, placeholder string) (string, bool) {
		return "typed message", true
	}

	out, err := run(t, repo, "commit")
	require.NoError(t, err)
	assert.Contains(t, out, "typed message")

	promptFunc = func(title, placeholder string) (string, bool) { return "", false }
	_, err = run(t, repo, "commit")
	assert.ErrorIs(t, err, errAborted)
}

func TestCommands_EmptyRepository(t *testing.T) {
	useTempHome(t)
	repo := createRepo(t)

	out, err := run(t, repo, "log")
	require.NoError(t, err)
	assert.Equal(t, "No commits yet.\n", out)

	out, err = run(t, repo, "graph", "--json")
	require.NoError(t, err)
	var g view.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Equal(t, view.GraphStateReady, g.State)
	assert.Empty(t, g.Nodes)
}

func TestCommands_NotARepository(t *testing.T) {
	useTempHome(t)
	dir := t.TempDir()

	_, err := run(t, dir, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open repository")
}

func TestCommands_OpenResolvesRecentRepository(t *testing.T) {
	useTempHome(t)
	repo := createRepo(t)

	// opening once records the repository
	_, err := run(t, repo, "status")
	require.NoError(t, err)

	out, err := run(t, repo, "open", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, repo)

	saved := launchFunc
	t.Cleanup(func() { launchFunc = saved })
	var launched string
	launchFunc = func(_ *cobra.Command, dir string) error {
		launched = dir
		return nil
	}

	_, err = run(t, repo, "open", filepath.Base(repo))
	require.NoError(t, err)
	assert.Equal(t, repo, launched)

	_, err = run(t, repo, "open", "zzzz-no-such-repo")
	assert.Error(t, err)
}

func TestRunConfig(t *testing.T) {
	useTempHome(t)
	cfg, err := config.Load()
	require.NoError(t, err)

	var out strings.Builder
	err = runConfig(bufio.NewReader(strings.NewReader("m\n2\n")), &out, cfg)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Saved: MCP server read only")

	viper.Reset()
	reloaded, err := config.Load()
	require.NoError(t, err)
	assert.True(t, reloaded.MCP.Enabled)
	assert.False(t, reloaded.MCP.AllowWrite)

	out.Reset()
	err = runConfig(bufio.NewReader(strings.NewReader("h\n0\n")), &out, reloaded)
	assert.Error(t, err)

	out.Reset()
	err = runConfig(bufio.NewReader(strings.NewReader("q\n")), &out, reloaded)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No changes made.")

	err = runConfig(bufio.NewReader(strings.NewReader("?\n")), &out, reloaded)
	assert.Error(t, err)
}

func TestCommands_ConfigShow(t *testing.T) {
	useTempHome(t)

	out, err := run(t, t.TempDir(), "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "max_count: 200")

	var settings map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &settings))
	assert.Contains(t, settings, "git")
	assert.Contains(t, settings, "watch")
}
