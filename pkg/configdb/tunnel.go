package configdb

import (
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/newtron-network/bootcfg/pkg/util"
)

// DefaultRemoteRedis is where redis listens on a controller
const DefaultRemoteRedis = "127.0.0.1:6379"

// TunnelConfig describes how to reach redis on a remote controller
type TunnelConfig struct {
	Host string
	Port int // defaults to 22
	User string

	// Password and KeyFile are tried in that order; at least one is needed
	Password string
	KeyFile  string

	// KnownHosts verifies the host key; empty skips verification
	KnownHosts string

	// RemoteAddr defaults to DefaultRemoteRedis
	RemoteAddr string
	Timeout    time.Duration
}

func (c TunnelConfig) clientConfig() (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	if c.Password != "" {
		auth = append(auth, ssh.Password(c.Password))
	}
	if c.KeyFile != "" {
		pem, err := os.ReadFile(c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading key %s: %w", c.KeyFile, err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parsing key %s: %w", c.KeyFile, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no SSH credentials for %s@%s", c.User, c.Host)
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if c.KnownHosts != "" {
		cb, err := knownhosts.New(c.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("loading known hosts: %w", err)
		}
		hostKey = cb
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &ssh.ClientConfig{
		User:            c.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         timeout,
	}, nil
}

// SSHTunnel forwards a local TCP port to redis on a controller through SSH.
// Controllers do not expose redis off-box.
type SSHTunnel struct {
	localAddr  string
	remoteAddr string
	sshClient  *ssh.Client
	listener   net.Listener
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewSSHTunnel dials SSH and opens a local listener on a random port
func NewSSHTunnel(cfg TunnelConfig) (*SSHTunnel, error) {
	config, err := cfg.clientConfig()
	if err != nil {
		return nil, err
	}
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	remote := cfg.RemoteAddr
	if remote == "" {
		remote = DefaultRemoteRedis
	}

	sshClient, err := ssh.Dial("tcp", net.JoinHostPort(cfg.Host, fmt.Sprint(port)), config)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s: %w", cfg.Host, err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("local listen: %w", err)
	}

	t := &SSHTunnel{
		localAddr:  listener.Addr().String(),
		remoteAddr: remote,
		sshClient:  sshClient,
		listener:   listener,
		done:       make(chan struct{}),
	}
	t.wg.Add(1)
	go t.acceptLoop()

	util.WithFields(map[string]interface{}{
		"host":   cfg.Host,
		"local":  t.localAddr,
		"remote": remote,
	}).Debug("SSH tunnel open")
	return t, nil
}

// LocalAddr returns the local address forwarding to the remote redis
func (t *SSHTunnel) LocalAddr() string {
	return t.localAddr
}

// Close stops the listener, waits for forwarded connections, and closes the
// SSH connection
func (t *SSHTunnel) Close() error {
	close(t.done)
	t.listener.Close()
	err := t.sshClient.Close()
	t.wg.Wait()
	return err
}

func (t *SSHTunnel) acceptLoop() {
	defer t.wg.Done()
	for {
		local, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.done:
				return
			default:
				util.Debugf("tunnel accept: %v", err)
				continue
			}
		}
		t.wg.Add(1)
		go t.forward(local)
	}
}

func (t *SSHTunnel) forward(local net.Conn) {
	defer t.wg.Done()
	defer local.Close()

	remote, err := t.sshClient.Dial("tcp", t.remoteAddr)
	if err != nil {
		util.Warnf("tunnel dial %s: %v", t.remoteAddr, err)
		return
	}
	defer remote.Close()

	done := make(chan struct{}, 2)
	go func() {
		io.Copy(remote, local)
		done <- struct{}{}
	}()
	go func() {
		io.Copy(local, remote)
		done <- struct{}{}
	}()
	<-done
}
