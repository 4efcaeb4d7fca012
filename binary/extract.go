package binary

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
)

// extract extracts files from a compressed tar.gz or zip archive; the format is
// detected by sniffing the file header.
// The processor function is called for each file in the archive and determines:
// - Which files to extract (by returning non-nil)
// - What name to give the extracted file (the returned string value)
// Files are extracted with executable permissions (0755).
// Returns the set of archive paths that were extracted.
func extract(compressed, destination string, processor func(path string) *string) (extracted map[string]struct{}, err error) {
	logdetail(fmt.Sprintf("extracting %s", compressed))

	start := time.Now()
	defer func() {
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			color.Red("     ✘ %s", elapsed)
			return
		}
		color.Green("     ✔ %s", elapsed)
	}()

	file, err := os.Open(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open compressed file: %s", ErrExtract, err)
	}
	defer file.Close()

	// sniff mime header to determine file type
	header := make([]byte, 512)
	n, _ := io.ReadFull(file, header)
	mime := http.DetectContentType(header[:n])
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExtract, err)
	}

	extracted = make(map[string]struct{})

	switch mime {
	case "application/x-gzip":
		err = untar(file, destination, processor, extracted)
	case "application/zip":
		info, staterr := file.Stat()
		if staterr != nil {
			return nil, fmt.Errorf("%w: %s", ErrExtract, staterr)
		}
		err = unzip(file, info.Size(), destination, processor, extracted)
	default:
		return nil, fmt.Errorf("%w: unsupported format: %s", ErrExtract, mime)
	}

	if err != nil {
		return nil, err
	}

	return extracted, nil
}

// handles .tar.gz files
func untar(file io.Reader, destination string, processor func(path string) *string, extracted map[string]struct{}) error {
	decompressor, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("%w: failed to create gzip reader: %s", ErrExtract, err)
	}
	defer decompressor.Close()

	reader := tar.NewReader(decompressor)

	for {
		header, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("%w: corrupt archive: %s", ErrExtract, err)
		}

		processed := processor(header.Name)
		if processed == nil {
			continue
		}

		target, err := within(destination, *processed)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: failed to create directory %s: %s", ErrInstall, target, err)
			}
		case tar.TypeReg:
			if err := writeexecutable(target, reader); err != nil {
				return err
			}
			extracted[header.Name] = struct{}{}
		}
	}

	return nil
}

// handles .zip files
func unzip(file io.ReaderAt, size int64, destination string, processor func(path string) *string, extracted map[string]struct{}) error {
	reader, err := zip.NewReader(file, size)
	if err != nil {
		return fmt.Errorf("%w: failed to create zip reader: %s", ErrExtract, err)
	}

	for _, file := range reader.File {
		processed := processor(file.Name)
		if processed == nil {
			continue
		}

		target, err := within(destination, *processed)
		if err != nil {
			return err
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: failed to create directory %s: %s", ErrInstall, target, err)
			}
			continue
		}

		contents, err := file.Open()
		if err != nil {
			return fmt.Errorf("%w: failed to open file %s: %s", ErrExtract, file.Name, err)
		}

		err = writeexecutable(target, contents)
		contents.Close()
		if err != nil {
			return err
		}

		extracted[file.Name] = struct{}{}
	}

	return nil
}

// within joins name to destination refusing paths that escape it.
func within(destination, name string) (string, error) {
	target := filepath.Join(destination, name)

	rel, err := filepath.Rel(destination, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: illegal path %s in archive", ErrExtract, name)
	}

	return target, nil
}

// writeexecutable copies contents into target with executable permissions,
// replacing any previous file.
func writeexecutable(target string, contents io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("%w: failed to create directory %s: %s", ErrInstall, filepath.Dir(target), err)
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return fmt.Errorf("%w: failed to create file %s: %s", ErrInstall, target, err)
	}
	defer out.Close()

	// the open mode only applies to new files
	if err := os.Chmod(target, 0o755); err != nil {
		return fmt.Errorf("%w: failed to make %s executable: %s", ErrInstall, target, err)
	}

	if _, err := io.Copy(out, contents); err != nil {
		return fmt.Errorf("%w: failed to copy data to file %s: %s", ErrExtract, target, err)
	}

	return nil
}
