package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Конфигурация
	CfgInfo         Code = 1000
	CfgBadFile      Code = 1001
	CfgBadValue     Code = 1002
	CfgUnknownCheck Code = 1003

	// Загрузка дампов солвера
	DmpInfo            Code = 2000
	DmpBadYAML         Code = 2001
	DmpUnknownOp       Code = 2002
	DmpUnknownVar      Code = 2003
	DmpUnknownFunction Code = 2004
	DmpBadType         Code = 2005
	DmpBadArity        Code = 2006
	DmpBadSpan         Code = 2007
	DmpDuplicate       Code = 2008

	// Семантические проверки после вывода типов
	SemaInfo           Code = 3000
	SemaError          Code = 3001
	SemaDangerousIsset Code = 3101

	// Ошибки I/O
	IOLoadFileError Code = 4001
	IOCacheError    Code = 4002

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001

	// Внутренние ошибки компилятора
	IntInfo          Code = 9000
	IntInvariant     Code = 9001
	IntUnitCancelled Code = 9002
)

var (
	codeDescription = map[Code]string{
		UnknownCode:        "Unknown error",
		CfgInfo:            "Configuration information",
		CfgBadFile:         "Malformed configuration file",
		CfgBadValue:        "Invalid configuration value",
		CfgUnknownCheck:    "Unknown check name",
		DmpInfo:            "Dump information",
		DmpBadYAML:         "Malformed dump",
		DmpUnknownOp:       "Unknown operation",
		DmpUnknownVar:      "Unknown variable",
		DmpUnknownFunction: "Unknown function",
		DmpBadType:         "Malformed type",
		DmpBadArity:        "Wrong number of children",
		DmpBadSpan:         "Location outside of source",
		DmpDuplicate:       "Duplicate declaration",
		SemaInfo:           "Semantic information",
		SemaError:          "Semantic error",
		SemaDangerousIsset: "Isset-like check may differ from PHP",
		IOLoadFileError:    "I/O load file error",
		IOCacheError:       "Result cache error",
		ObsInfo:            "Observability information",
		ObsTimings:         "Pipeline timings",
		IntInfo:            "Internal information",
		IntInvariant:       "Internal compiler error",
		IntUnitCancelled:   "Check cancelled",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("DMP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("INT%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
