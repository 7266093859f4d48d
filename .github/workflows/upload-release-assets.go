package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const archivePrefix = "go-bpmn-query-"

func main() {
	log.SetFlags(0)

	flags := flag.NewFlagSet("upload-release-assets", flag.ContinueOnError)
	flags.SetOutput(log.Writer())

	var releaseId string
	flags.StringVar(&releaseId, "release-id", "", "ID of the Github release")
	var repository string
	flags.StringVar(&repository, "repository", "gclaussn/go-bpmn-query", "Github repository, the release belongs to")
	var buildDir string
	flags.StringVar(&buildDir, "build-dir", "./build", "directory, containing archives and checksums")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		} else {
			os.Exit(1)
		}
	}

	if releaseId == "" {
		log.Fatal("please provide a release ID")
	}

	githubToken, ok := os.LookupEnv("GITHUB_TOKEN")
	if !ok {
		log.Fatal("please set environment variable GITHUB_TOKEN")
	}

	assets, err := collectAssets(buildDir)
	if err != nil {
		log.Fatalf("failed to collect release assets: %v", err)
	}

	uploader := assetUploader{
		client:      &http.Client{Timeout: 5 * time.Minute},
		githubToken: githubToken,
		uploadUrl:   fmt.Sprintf("https://uploads.github.com/repos/%s/releases/%s/assets", repository, releaseId),
	}

	for _, a := range assets {
		if err := uploader.upload(a); err != nil {
			log.Fatalf("failed to upload %s: %v", a.name, err)
		}
		log.Printf("%s: uploaded", a.name)
	}
}

type asset struct {
	name        string
	path        string
	contentType string
}

// collectAssets pairs each archive of the build directory with its checksum file.
// An archive is only released, if its checksum matches.
func collectAssets(buildDir string) ([]asset, error) {
	entries, err := os.ReadDir(buildDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read build directory: %v", err)
	}

	var assets []asset
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, archivePrefix) {
			return nil, fmt.Errorf("file %s is no release asset", name)
		}

		osArch, isArchive := strings.CutSuffix(strings.TrimPrefix(name, archivePrefix), ".tar.gz")
		if !isArchive {
			if strings.HasSuffix(name, ".sha256") {
				continue // uploaded along with its archive
			}
			return nil, fmt.Errorf("file %s has an unsupported extension", name)
		}

		archivePath := filepath.Join(buildDir, name)
		checksumName := archivePrefix + osArch + ".sha256"
		checksumPath := filepath.Join(buildDir, checksumName)

		if err := verifyChecksum(archivePath, checksumPath); err != nil {
			return nil, err
		}

		assets = append(assets,
			asset{name: name, path: archivePath, contentType: "application/gzip"},
			asset{name: checksumName, path: checksumPath, contentType: "text/plain"},
		)
	}

	if len(assets) == 0 {
		return nil, fmt.Errorf("build directory %s contains no archives", buildDir)
	}

	return assets, nil
}

// verifyChecksum compares the SHA-256 of an archive with the first field of a sha256sum output.
func verifyChecksum(archivePath string, checksumPath string) error {
	b, err := os.ReadFile(checksumPath)
	if err != nil {
		return fmt.Errorf("failed to read checksum file: %v", err)
	}

	fields := strings.Fields(string(b))
	if len(fields) == 0 {
		return fmt.Errorf("checksum file %s is empty", checksumPath)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %v", err)
	}

	defer archive.Close()

	h := sha256.New()
	if _, err := io.Copy(h, archive); err != nil {
		return fmt.Errorf("failed to hash archive %s: %v", archivePath, err)
	}

	if checksum := hex.EncodeToString(h.Sum(nil)); checksum != fields[0] {
		return fmt.Errorf("archive %s has checksum %s, but %s is expected", archivePath, checksum, fields[0])
	}

	return nil
}

type assetUploader struct {
	client      *http.Client
	githubToken string
	uploadUrl   string
}

func (u assetUploader) upload(a asset) error {
	b, err := os.ReadFile(a.path)
	if err != nil {
		return fmt.Errorf("failed to read asset: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, u.uploadUrl+"?name="+url.QueryEscape(a.name), bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+u.githubToken)
	req.Header.Set("Content-Type", a.contentType)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	res, err := u.client.Do(req)
	if err != nil {
		return err
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("HTTP %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
