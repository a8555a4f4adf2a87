// Command git-remote-inv4 is the git remote helper invoked whenever a
// remote URL has the scheme inv4://. It speaks the remote-helper line
// protocol on stdin/stdout, backed by a CAS and a ledger.
package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/abstracted-labs/inv4-git/internal/cas"
	"github.com/abstracted-labs/inv4-git/internal/config"
	"github.com/abstracted-labs/inv4-git/internal/helper"
	"github.com/abstracted-labs/inv4-git/internal/inv4err"
	"github.com/abstracted-labs/inv4-git/internal/ledger"
	"github.com/abstracted-labs/inv4-git/internal/localrepo"
	"github.com/abstracted-labs/inv4-git/internal/logging"
	"github.com/abstracted-labs/inv4-git/internal/objects"
	"github.com/abstracted-labs/inv4-git/internal/signer"
	"github.com/abstracted-labs/inv4-git/internal/sync"
)

// BlobstoreBaseURLEnv names the environment variable holding the CAS
// HTTP endpoint; the ledger alone does not carry enough addressing
// information to locate the blobstore, so this stays a process input
// rather than a URL component.
const BlobstoreBaseURLEnv = "INV4_BLOBSTORE_URL"

var urlPattern = regexp.MustCompile(`^inv4://(\d+)(?:/(\d+))?$`)

func main() {
	log := logging.New()

	flag.Parse()
	args := flag.Args()
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: git-remote-inv4 <remote-name> <url>")
		os.Exit(1)
	}
	remoteName, rawURL := args[0], args[1]

	repoID, subassetID, err := parseURL(rawURL)
	if err != nil {
		log.Fatal("cannot start", "remote", remoteName, "url", rawURL, "error", err.Error())
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("cannot load config", "error", err.Error())
	}

	gitDir := os.Getenv("GIT_DIR")
	local, err := localrepo.Open(gitDir)
	if err != nil {
		local, err = localrepo.Open(".")
		if err != nil {
			log.Fatal("cannot open local repository", "git_dir", gitDir, "error", err.Error())
		}
	}

	blobstoreURL := os.Getenv(BlobstoreBaseURLEnv)
	if blobstoreURL == "" {
		log.Fatal("cannot start", "error", BlobstoreBaseURLEnv+" is not set")
	}
	blobs := cas.Blobstore(cas.NewHTTPBlobstore(blobstoreURL))

	chain, err := ledger.DialWSLedger(cfg.ChainEndpoint)
	if err != nil {
		log.Fatal("cannot dial ledger", "endpoint", cfg.ChainEndpoint, "error", err.Error())
	}

	account, err := signer.FromEnv()
	if err != nil {
		log.Fatal("cannot construct signer", "error", err.Error())
	}

	manifest, err := loadManifest(chain, blobs, repoID, subassetID)
	if err != nil {
		log.Fatal("cannot load manifest", "repo_id", repoID, "error", err.Error())
	}

	session := &sync.Session{
		RepoID:     repoID,
		SubassetID: subassetID,
		Local:      local,
		Blobs:      blobs,
		Chain:      chain,
		Signer:     account,
		Log:        log.Module("sync"),
	}

	d := helper.New(session, manifest, repoID, subassetID, log.Module("helper"), os.Stdin, os.Stdout)
	if err := d.Run(); err != nil {
		log.Fatal("dispatcher exited with error", "error", err.Error())
	}
}

func parseURL(raw string) (repoID, subassetID uint32, err error) {
	m := urlPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, 0, inv4err.NewProtocolError("url %q does not match inv4://<repo-id>[/<subasset-id>]", raw)
	}
	id, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, 0, inv4err.NewProtocolError("url %q: repo-id out of range", raw)
	}
	if m[2] == "" {
		return uint32(id), 0, nil
	}
	sub, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return 0, 0, inv4err.NewProtocolError("url %q: subasset-id out of range", raw)
	}
	return uint32(id), uint32(sub), nil
}

// loadManifest fetches the current RepoData label from the ledger and
// decodes the blob it points at, or returns an empty manifest for a
// brand-new repository. The manifest is read once per session.
func loadManifest(chain ledger.Ledger, blobs cas.Blobstore, repoID, subassetID uint32) (*objects.RepoData, error) {
	refs, err := chain.ReadManifest(repoID, subassetID)
	if err != nil {
		if inv4err.IsNotFound(err) {
			return objects.NewRepoData(), nil
		}
		return nil, err
	}

	for _, r := range refs {
		if string(r.Label) != sync.RepoDataLabel {
			continue
		}
		cid, err := cas.DigestToCID(r.Digest)
		if err != nil {
			return nil, err
		}
		encoded, err := blobs.Get(cid)
		if err != nil {
			return nil, err
		}
		return objects.DecodeRepoData(encoded)
	}
	return objects.NewRepoData(), nil
}
