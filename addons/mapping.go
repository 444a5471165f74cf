package mapping

import (
	"github.com/openshift/onl-platform-daemon/addons/mellanox"
	"github.com/openshift/onl-platform-daemon/pkg/platform"
)

// PlatformMapping lists every platform the daemon can bring up
var PlatformMapping = []platform.Registration{
	mellanox.IDG4400Registration,
}
