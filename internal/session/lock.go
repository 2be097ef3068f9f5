package session

import (
	"os"
	"path/filepath"

	"tiersort/internal/errors"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// lockPath names the lock file for a source folder. It lives in the temp
// dir so sorted folders are not littered with lock files.
func lockPath(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs)))
	return filepath.Join(os.TempDir(), "tiersort-"+id.String()+".lock")
}

// lockSource takes the advisory lock on source. A folder held by another
// session yields a SessionLocked error.
func lockSource(source string) (*flock.Flock, error) {
	fl := flock.New(lockPath(source))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.NewConfigError("could not lock source folder", "source", errors.SessionLocked, err)
	}
	if !ok {
		return nil, errors.NewConfigError("source folder is being sorted by another session", "source", errors.SessionLocked, nil)
	}
	return fl, nil
}
