package autofill

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	cookiejar "github.com/orirawlings/persistent-cookiejar"
)

// Session holds the on-disk state shared by browser runs: the cookie jar
// carried between Chrome profiles and the directory failure snapshots go to.
type Session struct {
	Name       string // directory name to store session files (cookies, snapshots)
	FilePrefix string // prefix to directory of session files
	Log        Logger
	jar        *cookiejar.Jar
}

func NewSession(name string, log Logger) *Session {
	if log == nil {
		log = NopLogger{}
	}
	jar, _ := cookiejar.New(nil)
	return &Session{
		Name: name,
		Log:  log,
		jar:  jar,
	}
}

func (session *Session) Printf(format string, a ...interface{}) {
	session.Log.Printf(format, a...)
}

func (session *Session) getDirectory() string {
	return fmt.Sprintf("%v%v", session.FilePrefix, session.Name)
}

// SnapshotDirectory is where pages are saved when a fill fails.
func (session *Session) SnapshotDirectory() string {
	return filepath.Join(session.getDirectory(), "snapshots")
}

func (session *Session) Cookies(u *url.URL) []*http.Cookie {
	return session.jar.Cookies(u)
}

func (session *Session) SetCookies(u *url.URL, cookies []*http.Cookie) {
	session.jar.SetCookies(u, cookies)
}

// LoadCookie switches to the cookie file of the session directory.
func (session *Session) LoadCookie() error {
	if err := os.MkdirAll(session.getDirectory(), 0755); err != nil {
		return fmt.Errorf("couldn't create directory: %v", session.getDirectory())
	}
	filename := filepath.Join(session.getDirectory(), "cookie")

	jar, err := cookiejar.New(&cookiejar.Options{
		Filename:              filename,
		PersistSessionCookies: true,
	})
	if err == nil {
		session.jar = jar
	}
	return err
}

// SaveCookie stores cookies to a file.
// must call LoadCookie() before call SaveCookie().
func (session *Session) SaveCookie() error {
	return session.jar.Save()
}
