// Package all registers every bundled power backend. Import it for its
// side effects:
//
//	import _ "github.com/OpenCHAMI/powerctl/pkg/power/all"
package all

import (
	_ "github.com/OpenCHAMI/powerctl/pkg/power/bmc"
	_ "github.com/OpenCHAMI/powerctl/pkg/power/netio"
	_ "github.com/OpenCHAMI/powerctl/pkg/power/redfish"
	_ "github.com/OpenCHAMI/powerctl/pkg/power/rest"
	_ "github.com/OpenCHAMI/powerctl/pkg/power/shelly"
	_ "github.com/OpenCHAMI/powerctl/pkg/power/simplerest"
)
