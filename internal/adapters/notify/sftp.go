package notify

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const defaultSFTPTimeout = 30 * time.Second

// SFTPConfig describes the host clips are uploaded to.
type SFTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	KeyFile    string
	KnownHosts string
	// Dir is the remote directory clips are written into.
	Dir string
	// BaseURL is the public prefix the remote directory is served under.
	BaseURL string
	Timeout time.Duration
}

// SFTPUploader copies clips to a remote directory served over HTTP.
type SFTPUploader struct {
	cfg SFTPConfig
}

// NewSFTPUploader validates cfg and returns an uploader. Connections are
// opened per upload.
func NewSFTPUploader(cfg SFTPConfig) (*SFTPUploader, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("sftp: host is required")
	}
	if cfg.Password == "" && cfg.KeyFile == "" {
		return nil, ErrNoAuth
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSFTPTimeout
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	return &SFTPUploader{cfg: cfg}, nil
}

// Upload copies localPath to the remote directory as name and returns its URL.
func (u *SFTPUploader) Upload(ctx context.Context, localPath, name string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("sftp: open clip: %w", err)
	}
	defer src.Close()

	client, err := u.connect(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	// ssh has no context support; closing the client unblocks the copy.
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	if err := client.MkdirAll(u.cfg.Dir); err != nil {
		return "", fmt.Errorf("sftp: create directory: %w", err)
	}
	remote := path.Join(u.cfg.Dir, name)
	dst, err := client.Create(remote)
	if err != nil {
		return "", fmt.Errorf("sftp: create %s: %w", remote, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("sftp: upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("sftp: close remote file: %w", err)
	}
	return u.URL(name), nil
}

// URL returns the public location of an uploaded file.
func (u *SFTPUploader) URL(name string) string {
	return strings.TrimRight(u.cfg.BaseURL, "/") + "/" + url.PathEscape(name)
}

func (u *SFTPUploader) clientConfig() (*ssh.ClientConfig, error) {
	config := &ssh.ClientConfig{
		User:            u.cfg.User,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // opt-in via known_hosts
		Timeout:         u.cfg.Timeout,
	}
	if u.cfg.KnownHosts != "" {
		cb, err := knownhosts.New(u.cfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("sftp: known hosts: %w", err)
		}
		config.HostKeyCallback = cb
	}

	switch {
	case u.cfg.KeyFile != "":
		key, err := os.ReadFile(u.cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("sftp: read key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("sftp: parse key: %w", err)
		}
		config.Auth = []ssh.AuthMethod{ssh.PublicKeys(signer)}
	case u.cfg.Password != "":
		config.Auth = []ssh.AuthMethod{ssh.Password(u.cfg.Password)}
	default:
		return nil, ErrNoAuth
	}
	return config, nil
}

func (u *SFTPUploader) connect(ctx context.Context) (*sftp.Client, error) {
	config, err := u.clientConfig()
	if err != nil {
		return nil, err
	}

	type result struct {
		client *sftp.Client
		err    error
	}
	done := make(chan result, 1)
	go func() {
		addr := net.JoinHostPort(u.cfg.Host, strconv.Itoa(u.cfg.Port))
		sshConn, err := ssh.Dial("tcp", addr, config)
		if err != nil {
			done <- result{err: fmt.Errorf("sftp: dial %s: %w", addr, err)}
			return
		}
		client, err := sftp.NewClient(sshConn)
		if err != nil {
			_ = sshConn.Close()
			done <- result{err: fmt.Errorf("sftp: new client: %w", err)}
			return
		}
		done <- result{client: client}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-done; r.client != nil {
				_ = r.client.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-done:
		return r.client, r.err
	}
}
