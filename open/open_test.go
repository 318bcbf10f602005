package open

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidra-player/vidra/constant"
)

func TestLauncher(t *testing.T) {
	Convey("Given a manual URL", t, func() {
		url := constant.ManualURL

		Convey("Linux uses xdg-open", func() {
			argv, ok := launcher(constant.Linux, url)
			So(ok, ShouldBeTrue)
			So(argv, ShouldResemble, []string{"xdg-open", url})
		})

		Convey("macOS uses open", func() {
			argv, ok := launcher(constant.Darwin, url)
			So(ok, ShouldBeTrue)
			So(argv, ShouldResemble, []string{"open", url})
		})

		Convey("Windows goes through rundll32", func() {
			argv, ok := launcher(constant.Windows, url)
			So(ok, ShouldBeTrue)
			So(argv[1], ShouldEqual, "url.dll,FileProtocolHandler")
			So(argv[2], ShouldEqual, url)
		})

		Convey("Unknown platforms are rejected", func() {
			_, ok := launcher("plan9", url)
			So(ok, ShouldBeFalse)
		})
	})
}
