// Package git acquires the codebase to scan: a shallow clone of a remote
// repository into a temporary directory.
package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gitsight/go-vcsurl"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/hashicorp/go-hclog"
	crssh "golang.org/x/crypto/ssh"

	"github.com/tabledep/tabledep/pkg/shared/config"
	log "github.com/tabledep/tabledep/pkg/shared/logger"
)

// CloneOptions describes a repository fetch.
type CloneOptions struct {
	// URL is the clone URL (https or ssh).
	URL string
	// Branch optionally selects a branch; empty uses the remote default.
	Branch string
	// AuthType is one of "", "http", "ssh-key", "ssh-agent".
	AuthType string
	// SSHKeyPath is the private key used with AuthType "ssh-key".
	SSHKeyPath string
	// TargetDir receives the clone; empty creates a temp directory.
	TargetDir string
}

// CloneRepository fetches the repository and returns the checkout directory.
// The caller owns the returned directory's lifecycle.
func CloneRepository(cfg *config.Config, opts CloneOptions, logger hclog.Logger) (string, error) {
	info, err := vcsurl.Parse(opts.URL)
	if err != nil {
		return "", fmt.Errorf("failed to parse VCS URL %q: %w", opts.URL, err)
	}

	targetDir := opts.TargetDir
	if targetDir == "" {
		targetDir, err = os.MkdirTemp("", "tabledep-scan-")
		if err != nil {
			return "", fmt.Errorf("failed to create temp clone directory: %w", err)
		}
	}

	auth, err := buildAuth(opts, logger)
	if err != nil {
		return "", err
	}

	cloneOptions := &gogit.CloneOptions{
		URL:             opts.URL,
		Auth:            auth,
		Progress:        log.GetLoggerOutput(logger),
		Depth:           cfg.GitClient.Depth,
		InsecureSkipTLS: cfg.GitClient.InsecureTLS,
	}
	if opts.Branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GitClient.Timeout)
	defer cancel()

	logger.Debug("starting repository fetch", "repository", info.Name, "branch", opts.Branch, "targetDir", targetDir)
	if _, err := gogit.PlainCloneContext(ctx, targetDir, false, cloneOptions); err != nil {
		return "", fmt.Errorf("error occurred during clone: %w", err)
	}

	logger.Info("clone completed", "repository", info.Name, "targetDir", targetDir)
	return targetDir, nil
}

// Cleanup removes a clone directory, logging instead of failing: a leftover
// temp clone is noise, not an error.
func Cleanup(path string, logger hclog.Logger) {
	if err := os.RemoveAll(path); err != nil {
		logger.Warn("cleanup of temp clone failed", "path", path, "error", err)
	}
}

func buildAuth(opts CloneOptions, logger hclog.Logger) (transport.AuthMethod, error) {
	switch opts.AuthType {
	case "", "none":
		return nil, nil

	case "http":
		return &http.BasicAuth{
			Username: os.Getenv("TABLEDEP_GIT_USERNAME"),
			Password: os.Getenv("TABLEDEP_GIT_TOKEN"),
		}, nil

	case "ssh-key":
		keyPath := opts.SSHKeyPath
		if strings.HasPrefix(keyPath, "~/") {
			home, _ := os.UserHomeDir()
			keyPath = filepath.Join(home, keyPath[2:])
		}
		if _, err := os.Stat(keyPath); err != nil {
			return nil, fmt.Errorf("cannot read ssh key %q: %w", keyPath, err)
		}
		pkCallback, err := ssh.NewPublicKeysFromFile("git", keyPath, os.Getenv("TABLEDEP_SSH_KEY_PASSWORD"))
		if err != nil {
			return nil, fmt.Errorf("failed to load public keys: %w", err)
		}
		pkCallback.HostKeyCallbackHelper = ssh.HostKeyCallbackHelper{
			HostKeyCallback: crssh.InsecureIgnoreHostKey(),
		}
		return pkCallback, nil

	case "ssh-agent":
		pkCallback, err := ssh.NewSSHAgentAuth("git")
		if err != nil {
			return nil, fmt.Errorf("ssh agent auth failed: %w", err)
		}
		pkCallback.HostKeyCallbackHelper = ssh.HostKeyCallbackHelper{
			HostKeyCallback: crssh.InsecureIgnoreHostKey(),
		}
		return pkCallback, nil

	default:
		return nil, fmt.Errorf("unknown auth type %q", opts.AuthType)
	}
}
