package frames

import (
	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
	"io"
	"os"
	"path/filepath"
	"time"
)

// SFTPFetcher fetches frames from a remote host over SFTP
type SFTPFetcher struct {
	client *sftp.Client
	// conn is the underlying ssh connection
	conn *ssh.Client
}

// DialSFTP connects to addr as user authenticating with the private key
// file.  The host key is checked against the knownHosts file
func DialSFTP(addr, user, keyFile, knownHosts string) (*SFTPFetcher, error) {

	key, err := os.ReadFile(keyFile)

	if err != nil {
		return nil, errors.Wrap(err, "reading private key")
	}

	signer, err := ssh.ParsePrivateKey(key)

	if err != nil {
		return nil, errors.Wrap(err, "parsing private key")
	}

	hostKeys, err := knownhosts.New(knownHosts)

	if err != nil {
		return nil, errors.Wrap(err, "loading known hosts")
	}

	conn, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeys,
		Timeout:         15 * time.Second,
	})

	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", addr)
	}

	client, err := sftp.NewClient(conn)

	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "starting sftp session")
	}

	return &SFTPFetcher{client: client, conn: conn}, nil
}

// Fetch copies the remote file to the local path.  The file is written to a
// temporary name first so an interrupted copy never leaves a partial frame
func (f *SFTPFetcher) Fetch(remotePath, localPath string) error {

	src, err := f.client.Open(remotePath)

	if err != nil {
		return errors.Wrap(err, "opening remote file")
	}

	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(localPath), ".fetch-*")

	if err != nil {
		return errors.Wrap(err, "creating local file")
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "copying remote file")
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "closing local file")
	}

	return os.Rename(tmp.Name(), localPath)
}

// Close ends the SFTP session and the ssh connection
func (f *SFTPFetcher) Close() error {

	err := f.client.Close()

	if cerr := f.conn.Close(); err == nil {
		err = cerr
	}

	return err
}
