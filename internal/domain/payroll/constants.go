package payroll

type ContainerSize string

const (
	ContainerLarge ContainerSize = "large"
	ContainerSmall ContainerSize = "small"
)

type ProcessType string

const (
	ProcessBlown  ProcessType = "blown"
	ProcessRolled ProcessType = "rolled"
)

var (
	ContainerSizes = []ContainerSize{ContainerLarge, ContainerSmall}
	ProcessTypes   = []ProcessType{ProcessBlown, ProcessRolled}
)

const (
	minNameLength = 2
	minCount      = 1
	maxCount      = 1_000_000
	minAmount     = 1
)
