// Package crypt implements the cokacenc v2 chunked encryption container:
// a self-describing packer/unpacker that splits arbitrarily large files
// into AES-256-CBC encrypted, metadata-prefixed chunks addressable by an
// opaque group identifier, with integrity verification and independent
// unordered reassembly.
package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lestrrat-go/pdebug"
	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	magic      = "COKACENC"
	version    = uint32(2)
	saltLen    = 16
	ivLen      = 16
	pbkdf2Iter = 100000
	keyLen     = 32 // AES-256
	headerLen  = len(magic) + 4 + saltLen + ivLen

	// DefaultSplitSize is the default chunk size for Pack, 1800 MiB.
	DefaultSplitSize = 1800 * 1024 * 1024

	extension = ".cokacenc"

	seqAlphabetLen = 26
	seqDigits      = 4
)

// Metadata is the per-chunk JSON descriptor, repeated verbatim in every
// chunk of a group (§4.11).
type Metadata struct {
	V      int    `json:"v"`
	Group  string `json:"group"`
	Name   string `json:"name"`
	Size   uint64 `json:"size"`
	MD5    string `json:"md5"`
	Mtime  int64  `json:"mtime"`
	Perm   uint32 `json:"perm"`
	Chunks uint32 `json:"chunks"`
	Idx    uint32 `json:"idx"`
	Offset uint64 `json:"offset"`
	Len    uint64 `json:"len"`
}

// encodeSeq encodes a 0-based chunk index as 4 lowercase base-26 digits,
// aaaa=0, aaab=1, ..., zzzz=456975.
func encodeSeq(idx uint32) string {
	digits := make([]byte, seqDigits)
	for i := seqDigits - 1; i >= 0; i-- {
		digits[i] = byte('a' + idx%seqAlphabetLen)
		idx /= seqAlphabetLen
	}
	return string(digits)
}

// decodeSeq is the inverse of encodeSeq.
func decodeSeq(s string) (uint32, error) {
	if len(s) != seqDigits {
		return 0, errors.Errorf("invalid seq %q: must be %d characters", s, seqDigits)
	}
	var idx uint32
	for _, c := range []byte(s) {
		if c < 'a' || c > 'z' {
			return 0, errors.Errorf("invalid seq %q: characters must be a-z", s)
		}
		idx = idx*seqAlphabetLen + uint32(c-'a')
	}
	return idx, nil
}

// ChunkFilename returns "<group 16hex>_<seq>.cokacenc".
func ChunkFilename(group [8]byte, idx uint32) string {
	return fmt.Sprintf("%s_%s%s", hex.EncodeToString(group[:]), encodeSeq(idx), extension)
}

// ParseChunkFilename extracts the group id and chunk index from a
// "<group>_<seq>.cokacenc" filename.
func ParseChunkFilename(name string) (groupHex string, idx uint32, err error) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, extension) {
		return "", 0, errors.Errorf("not a cokacenc file: %s", base)
	}
	stem := strings.TrimSuffix(base, extension)
	parts := strings.SplitN(stem, "_", 2)
	if len(parts) != 2 || len(parts[0]) != 16 {
		return "", 0, errors.Errorf("malformed cokacenc filename: %s", base)
	}
	idx, err = decodeSeq(parts[1])
	if err != nil {
		return "", 0, errors.Wrapf(err, "malformed cokacenc filename: %s", base)
	}
	return parts[0], idx, nil
}

func deriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, pbkdf2Iter, keyLen, sha512.New)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	pad := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(data, pad...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	n := len(data)
	if n == 0 {
		return nil, errors.New("cannot unpad empty data")
	}
	padLen := int(data[n-1])
	if padLen == 0 || padLen > n || padLen > aes.BlockSize {
		return nil, errors.New("invalid PKCS7 padding")
	}
	for _, b := range data[n-padLen:] {
		if int(b) != padLen {
			return nil, errors.New("invalid PKCS7 padding")
		}
	}
	return data[:n-padLen], nil
}

func encryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create AES cipher")
	}
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

func decryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.New("ciphertext is not a multiple of the AES block size")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create AES cipher")
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return pkcs7Unpad(plaintext)
}

// PackOptions configures Pack.
type PackOptions struct {
	// SplitSize is the max chunk payload size in bytes. Zero means
	// DefaultSplitSize.
	SplitSize int64
	// Cancel, if non-nil, is checked after each chunk; when closed, Pack
	// stops and removes any partial output chunks it already wrote.
	Cancel <-chan struct{}
}

// Pack splits srcPath into encrypted .cokacenc chunks in destDir, keyed by
// password, and removes srcPath once every chunk has been written. It
// returns the chunk filenames in order.
func Pack(srcPath, destDir string, password []byte, opts PackOptions) ([]string, error) {
	if pdebug.Enabled {
		g := pdebug.Marker("crypt.Pack %s", srcPath)
		defer g.End()
	}

	splitSize := opts.SplitSize
	if splitSize <= 0 {
		splitSize = DefaultSplitSize
	}

	info, err := os.Stat(srcPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", srcPath)
	}
	size := uint64(info.Size())

	sum, err := fileMD5(srcPath)
	if err != nil {
		return nil, err
	}

	var group [8]byte
	if _, err := rand.Read(group[:]); err != nil {
		return nil, errors.Wrap(err, "failed to generate group id")
	}

	chunks := uint32(1)
	if size > 0 {
		chunks = uint32((size + uint64(splitSize) - 1) / uint64(splitSize))
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", srcPath)
	}
	defer src.Close()

	written := make([]string, 0, chunks)
	cleanup := func() {
		for _, name := range written {
			os.Remove(filepath.Join(destDir, name))
		}
	}

	perm := uint32(info.Mode().Perm())
	mtime := info.ModTime().Unix()
	name := filepath.Base(srcPath)

	for idx := uint32(0); idx < chunks; idx++ {
		select {
		case <-opts.Cancel:
			cleanup()
			return nil, errors.New("pack cancelled")
		default:
		}

		offset := uint64(idx) * uint64(splitSize)
		length := uint64(splitSize)
		if remaining := size - offset; remaining < length {
			length = remaining
		}

		payload := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(src, payload); err != nil {
				cleanup()
				return nil, errors.Wrapf(err, "failed to read chunk %d of %s", idx, srcPath)
			}
		}

		md := Metadata{
			V: int(version), Group: hex.EncodeToString(group[:]), Name: name,
			Size: size, MD5: sum, Mtime: mtime, Perm: perm,
			Chunks: chunks, Idx: idx, Offset: offset, Len: length,
		}
		mdJSON, err := json.Marshal(md)
		if err != nil {
			cleanup()
			return nil, errors.Wrap(err, "failed to encode chunk metadata")
		}

		var plain bytes.Buffer
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(mdJSON)))
		plain.Write(lenBuf[:])
		plain.Write(mdJSON)
		plain.Write(payload)

		var salt [saltLen]byte
		if _, err := rand.Read(salt[:]); err != nil {
			cleanup()
			return nil, errors.Wrap(err, "failed to generate chunk salt")
		}
		var iv [ivLen]byte
		if _, err := rand.Read(iv[:]); err != nil {
			cleanup()
			return nil, errors.Wrap(err, "failed to generate chunk IV")
		}
		key := deriveKey(password, salt[:])

		ciphertext, err := encryptCBC(key, iv[:], plain.Bytes())
		if err != nil {
			cleanup()
			return nil, err
		}

		chunkName := ChunkFilename(group, idx)
		chunkPath := filepath.Join(destDir, chunkName)
		if err := writeChunkAtomic(chunkPath, salt[:], iv[:], ciphertext); err != nil {
			cleanup()
			return nil, err
		}
		written = append(written, chunkName)
	}

	if err := os.Remove(srcPath); err != nil {
		return nil, errors.Wrapf(err, "failed to remove original file %s after packing", srcPath)
	}

	return written, nil
}

func writeChunkAtomic(path string, salt, iv, ciphertext []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cokacenc-*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp chunk file")
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	var hdr bytes.Buffer
	hdr.WriteString(magic)
	var verBuf [4]byte
	binary.LittleEndian.PutUint32(verBuf[:], version)
	hdr.Write(verBuf[:])
	hdr.Write(salt)
	hdr.Write(iv)

	if _, err = tmp.Write(hdr.Bytes()); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write chunk header")
	}
	if _, err = tmp.Write(ciphertext); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write chunk ciphertext")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp chunk file")
	}
	if err = os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "failed to rename temp chunk file to %s", path)
	}
	return nil
}

func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open %s for hashing", path)
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "failed to hash %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// readChunk reads and decrypts one chunk file, returning its metadata and
// payload bytes.
func readChunk(path string, password []byte) (Metadata, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, nil, errors.Wrapf(err, "failed to read chunk %s", path)
	}
	if len(data) < headerLen {
		return Metadata{}, nil, errors.Errorf("chunk %s is too short", path)
	}
	if string(data[:len(magic)]) != magic {
		return Metadata{}, nil, errors.Errorf("chunk %s has bad magic", path)
	}
	ver := binary.LittleEndian.Uint32(data[len(magic) : len(magic)+4])
	if ver != version {
		return Metadata{}, nil, errors.Errorf("chunk %s has unsupported version %d", path, ver)
	}
	o := len(magic) + 4
	salt := data[o : o+saltLen]
	o += saltLen
	iv := data[o : o+ivLen]
	o += ivLen
	ciphertext := data[o:]

	key := deriveKey(password, salt)
	plain, err := decryptCBC(key, iv, ciphertext)
	if err != nil {
		return Metadata{}, nil, errors.Wrapf(err, "failed to decrypt chunk %s", path)
	}
	if len(plain) < 4 {
		return Metadata{}, nil, errors.Errorf("chunk %s has truncated metadata length", path)
	}
	mdLen := binary.LittleEndian.Uint32(plain[:4])
	if uint64(4+mdLen) > uint64(len(plain)) {
		return Metadata{}, nil, errors.Errorf("chunk %s has truncated metadata", path)
	}
	var md Metadata
	if err := json.Unmarshal(plain[4:4+mdLen], &md); err != nil {
		return Metadata{}, nil, errors.Wrapf(err, "failed to decode metadata for chunk %s", path)
	}
	payload := plain[4+mdLen:]
	return md, payload, nil
}

// UnpackOptions configures Unpack.
type UnpackOptions struct {
	Cancel <-chan struct{}
}

// Unpack reassembles one group of .cokacenc chunks (given by their full
// paths, any order) into destDir, verifying the whole-file MD5 before
// committing, and removes the source chunk files on success.
func Unpack(chunkPaths []string, destDir string, password []byte, opts UnpackOptions) (outputPath string, err error) {
	if pdebug.Enabled {
		g := pdebug.Marker("crypt.Unpack group of %d chunks", len(chunkPaths))
		defer g.End()
	}
	if len(chunkPaths) == 0 {
		return "", errors.New("no chunks given")
	}

	type indexed struct {
		path string
		idx  uint32
	}
	ordered := make([]indexed, 0, len(chunkPaths))
	var group string
	for _, p := range chunkPaths {
		g, idx, perr := ParseChunkFilename(p)
		if perr != nil {
			return "", perr
		}
		if group == "" {
			group = g
		} else if g != group {
			return "", errors.Errorf("chunk %s belongs to a different group", p)
		}
		ordered = append(ordered, indexed{path: p, idx: idx})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].idx < ordered[j].idx })

	firstMD, _, err := readChunk(ordered[0].path, password)
	if err != nil {
		return "", err
	}
	if firstMD.V != int(version) {
		return "", errors.Errorf("unsupported cokacenc version %d", firstMD.V)
	}
	if int(firstMD.Chunks) != len(ordered) {
		return "", errors.Errorf("integrity error: metadata reports %d chunks, found %d files for group %s", firstMD.Chunks, len(ordered), group)
	}

	outPath := filepath.Join(destDir, firstMD.Name)
	tmp, err := os.CreateTemp(destDir, ".cokacenc-unpack-*.tmp")
	if err != nil {
		return "", errors.Wrap(err, "failed to create temp output file")
	}
	tmpName := tmp.Name()
	cleanupTemp := func() {
		tmp.Close()
		os.Remove(tmpName)
	}
	if err := tmp.Truncate(int64(firstMD.Size)); err != nil {
		cleanupTemp()
		return "", errors.Wrap(err, "failed to allocate temp output file")
	}

	for _, item := range ordered {
		select {
		case <-opts.Cancel:
			cleanupTemp()
			return "", errors.New("unpack cancelled")
		default:
		}

		md, payload, err := readChunk(item.path, password)
		if err != nil {
			cleanupTemp()
			return "", err
		}
		if md.Group != group || md.Name != firstMD.Name || md.Size != firstMD.Size || md.MD5 != firstMD.MD5 || md.Chunks != firstMD.Chunks {
			cleanupTemp()
			return "", errors.Errorf("integrity error: chunk %s disagrees with group metadata", item.path)
		}
		if md.Offset+md.Len > md.Size {
			cleanupTemp()
			return "", errors.Errorf("integrity error: chunk %s offset+len exceeds file size", item.path)
		}
		if _, err := tmp.WriteAt(payload, int64(md.Offset)); err != nil {
			cleanupTemp()
			return "", errors.Wrapf(err, "failed to write chunk %s payload", item.path)
		}
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanupTemp()
		return "", errors.Wrap(err, "failed to seek temp output file")
	}
	h := md5.New()
	if _, err := io.Copy(h, tmp); err != nil {
		cleanupTemp()
		return "", errors.Wrap(err, "failed to hash reassembled file")
	}
	sum := hex.EncodeToString(h.Sum(nil))
	if sum != firstMD.MD5 {
		cleanupTemp()
		return "", errors.Errorf("integrity error: MD5 mismatch for %s (got %s, want %s)", firstMD.Name, sum, firstMD.MD5)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", errors.Wrap(err, "failed to close temp output file")
	}
	if err := os.Chmod(tmpName, os.FileMode(firstMD.Perm)); err != nil {
		os.Remove(tmpName)
		return "", errors.Wrap(err, "failed to restore file permissions")
	}
	mtime := time.Unix(firstMD.Mtime, 0)
	if err := os.Chtimes(tmpName, mtime, mtime); err != nil {
		os.Remove(tmpName)
		return "", errors.Wrap(err, "failed to restore file mtime")
	}
	if err := os.Rename(tmpName, outPath); err != nil {
		os.Remove(tmpName)
		return "", errors.Wrapf(err, "failed to rename temp output file to %s", outPath)
	}

	for _, item := range ordered {
		os.Remove(item.path)
	}

	return outPath, nil
}

// GroupChunks groups .cokacenc file paths found in dir by their parsed
// group id, for driving Unpack per-group.
func GroupChunks(dir string) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}
	groups := make(map[string][]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), extension) {
			continue
		}
		group, _, err := ParseChunkFilename(e.Name())
		if err != nil {
			continue
		}
		groups[group] = append(groups[group], filepath.Join(dir, e.Name()))
	}
	return groups, nil
}
