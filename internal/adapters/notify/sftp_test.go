package notify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSFTPUploaderConfig(t *testing.T) {
	Convey("Given sftp uploader construction", t, func() {
		Convey("When the host is missing", func() {
			_, err := NewSFTPUploader(SFTPConfig{Password: "x"})
			So(err, ShouldNotBeNil)
		})

		Convey("When no credentials are given", func() {
			_, err := NewSFTPUploader(SFTPConfig{Host: "files.local"})
			So(errors.Is(err, ErrNoAuth), ShouldBeTrue)
		})

		Convey("When only a password is given", func() {
			u, err := NewSFTPUploader(SFTPConfig{Host: "files.local", User: "cam", Password: "x", BaseURL: "https://files.local/clips/"})
			So(err, ShouldBeNil)

			Convey("Then defaults are applied", func() {
				So(u.cfg.Port, ShouldEqual, 22)
				So(u.cfg.Timeout, ShouldEqual, defaultSFTPTimeout)
				So(u.cfg.Dir, ShouldEqual, ".")
			})

			Convey("Then URLs are escaped under the base URL", func() {
				So(u.URL("ev 1.mp4"), ShouldEqual, "https://files.local/clips/ev%201.mp4")
			})

			Convey("Then the client config uses password auth", func() {
				cfg, err := u.clientConfig()
				So(err, ShouldBeNil)
				So(cfg.User, ShouldEqual, "cam")
				So(cfg.Auth, ShouldHaveLength, 1)
			})
		})

		Convey("When the key file does not exist", func() {
			u, err := NewSFTPUploader(SFTPConfig{Host: "files.local", KeyFile: filepath.Join(t.TempDir(), "missing")})
			So(err, ShouldBeNil)
			_, err = u.clientConfig()
			So(err, ShouldNotBeNil)
		})

		Convey("When the key file is not a key", func() {
			key := filepath.Join(t.TempDir(), "id")
			So(os.WriteFile(key, []byte("not a key"), 0o600), ShouldBeNil)
			u, err := NewSFTPUploader(SFTPConfig{Host: "files.local", KeyFile: key})
			So(err, ShouldBeNil)
			_, err = u.clientConfig()
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSFTPUpload(t *testing.T) {
	Convey("Given an uploader", t, func() {
		u, err := NewSFTPUploader(SFTPConfig{Host: "127.0.0.1", Port: 1, Password: "x", Timeout: time.Second})
		So(err, ShouldBeNil)

		Convey("When the local clip is missing", func() {
			_, err := u.Upload(context.Background(), filepath.Join(t.TempDir(), "none.mp4"), "none.mp4")
			So(err, ShouldNotBeNil)
		})

		Convey("When the context is already canceled", func() {
			clip := filepath.Join(t.TempDir(), "a.mp4")
			So(os.WriteFile(clip, []byte("data"), 0o600), ShouldBeNil)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := u.Upload(ctx, clip, "a.mp4")
			So(err, ShouldNotBeNil)
		})
	})
}
