// Package remote implements the SSH/SFTP arm of the Filesystem
// Abstraction (§4.10), bound to a RemoteProfile. The SSH/SFTP transport
// itself (golang.org/x/crypto/ssh, github.com/pkg/sftp) is an external
// collaborator; this package owns only the path-aware dispatch.
package remote

import (
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/mongsil1012/opendir/internal/vfs"
)

// DefaultConnectTimeout is the bounded connection timeout from §5
// ("Remote connection attempts have a bounded timeout (default 5
// seconds)").
const DefaultConnectTimeout = 5 * time.Second

// URI is a parsed remote panel location, "user@host[:port]:/absolute/path".
type URI struct {
	User string
	Host string
	Port int
	Path string
}

var uriPattern = regexp.MustCompile(`^([^@]+)@([^:]+)(?::(\d+))?:(/.*)$`)

// ParseURI parses "user@host[:port]:/absolute/path" (§6). Port omitted
// means 22.
func ParseURI(s string) (URI, error) {
	m := uriPattern.FindStringSubmatch(s)
	if m == nil {
		return URI{}, errors.Errorf("malformed remote URI %q", s)
	}
	port := 22
	if m[3] != "" {
		p, err := strconv.Atoi(m[3])
		if err != nil {
			return URI{}, errors.Errorf("malformed port in remote URI %q", s)
		}
		port = p
	}
	return URI{User: m[1], Host: m[2], Port: port, Path: m[4]}, nil
}

func (u URI) String() string {
	return fmt.Sprintf("%s@%s:%d:%s", u.User, u.Host, u.Port, u.Path)
}

// AuthMethod produces the ssh.AuthMethod for a connection: a password or
// a parsed private key.
type AuthMethod interface {
	sshAuthMethod() (ssh.AuthMethod, error)
}

// PasswordAuth authenticates with a plaintext password.
type PasswordAuth string

func (p PasswordAuth) sshAuthMethod() (ssh.AuthMethod, error) {
	return ssh.Password(string(p)), nil
}

// KeyFileAuth authenticates with an unencrypted private key's PEM bytes.
type KeyFileAuth []byte

func (k KeyFileAuth) sshAuthMethod() (ssh.AuthMethod, error) {
	signer, err := ssh.ParsePrivateKey(k)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}
	return ssh.PublicKeys(signer), nil
}

// Filesystem is the SFTP-backed Filesystem implementation, bound to one
// connected session.
type Filesystem struct {
	client *sftp.Client
	conn   *ssh.Client
}

var _ vfs.Filesystem = (*Filesystem)(nil)

// Dial opens an SSH connection to uri.Host:uri.Port and mounts an SFTP
// session over it, bounded by timeout (pass 0 for DefaultConnectTimeout).
// HostKeyCallback is deliberately the caller's concern: it is threaded
// through from the settings/connection-dialog layer, never hardcoded to
// InsecureIgnoreHostKey here.
func Dial(uri URI, auth AuthMethod, hostKeyCallback ssh.HostKeyCallback, timeout time.Duration) (*Filesystem, error) {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	method, err := auth.sshAuthMethod()
	if err != nil {
		return nil, err
	}

	cfg := &ssh.ClientConfig{
		User:            uri.User,
		Auth:            []ssh.AuthMethod{method},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	addr := net.JoinHostPort(uri.Host, strconv.Itoa(uri.Port))
	conn, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", addr)
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to start SFTP session")
	}

	return &Filesystem{client: client, conn: conn}, nil
}

// Close tears down the SFTP session and the underlying SSH connection.
func (f *Filesystem) Close() error {
	cerr := f.client.Close()
	serr := f.conn.Close()
	if cerr != nil {
		return errors.Wrap(cerr, "failed to close SFTP session")
	}
	if serr != nil {
		return errors.Wrap(serr, "failed to close SSH connection")
	}
	return nil
}

func entryFromFileInfo(fi os.FileInfo) vfs.Entry {
	e := vfs.Entry{
		Name:  fi.Name(),
		IsDir: fi.IsDir(),
		Size:  fi.Size(),
		Mtime: fi.ModTime(),
		Perm:  uint32(fi.Mode().Perm()),
	}
	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		e.Type = vfs.TypeSymlink
	case fi.IsDir():
		e.Type = vfs.TypeDir
	default:
		e.Type = vfs.TypeFile
	}
	return e
}

func (f *Filesystem) List(dir string) ([]vfs.Entry, error) {
	infos, err := f.client.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list remote directory %s", dir)
	}
	out := make([]vfs.Entry, 0, len(infos))
	for _, fi := range infos {
		out = append(out, entryFromFileInfo(fi))
	}
	return out, nil
}

func (f *Filesystem) Stat(p string) (vfs.Entry, error) {
	fi, err := f.client.Lstat(p)
	if err != nil {
		return vfs.Entry{}, errors.Wrapf(err, "failed to stat remote path %s", p)
	}
	return entryFromFileInfo(fi), nil
}

func (f *Filesystem) OpenRead(p string) (io.ReadCloser, error) {
	r, err := f.client.Open(p)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open remote path %s", p)
	}
	return r, nil
}

func (f *Filesystem) OpenWrite(p string) (io.WriteCloser, error) {
	w, err := f.client.Create(p)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create remote path %s", p)
	}
	return w, nil
}

func (f *Filesystem) Mkdir(p string) error {
	if err := f.client.MkdirAll(p); err != nil {
		return errors.Wrapf(err, "failed to create remote directory %s", p)
	}
	return nil
}

func (f *Filesystem) Rm(p string) error {
	fi, err := f.client.Lstat(p)
	if err != nil {
		return errors.Wrapf(err, "failed to stat remote path %s", p)
	}
	if fi.IsDir() {
		if err := f.client.RemoveDirectory(p); err != nil {
			return errors.Wrapf(err, "failed to remove remote directory %s", p)
		}
		return nil
	}
	if err := f.client.Remove(p); err != nil {
		return errors.Wrapf(err, "failed to remove remote path %s", p)
	}
	return nil
}

func (f *Filesystem) Rename(oldPath, newPath string) error {
	if err := f.client.Rename(oldPath, newPath); err != nil {
		return errors.Wrapf(err, "failed to rename remote path %s to %s", oldPath, newPath)
	}
	return nil
}

func (f *Filesystem) Walk(root string, fn vfs.WalkFunc) error {
	walker := f.client.Walk(root)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			if ferr := fn(walker.Path(), vfs.Entry{}, err); ferr != nil {
				return ferr
			}
			continue
		}
		cbErr := fn(walker.Path(), entryFromFileInfo(walker.Stat()), nil)
		if cbErr == vfs.SkipDir {
			walker.SkipDir()
			continue
		}
		if cbErr != nil {
			return cbErr
		}
	}
	return walker.Err()
}

func (f *Filesystem) Join(elem ...string) string {
	return path.Join(elem...)
}
