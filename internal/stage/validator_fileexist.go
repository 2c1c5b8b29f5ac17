package stage

import (
	"fmt"
	"os"

	"github.com/coolshawn/Hasal/internal/domain/entity"
	"github.com/coolshawn/Hasal/internal/domain/port"
)

const FileExistValidatorName = "FileExistValidator"

// FileExistValidator confirms that every expected recording artifact is on
// disk before any expensive processing starts.
type FileExistValidator struct {
	out entity.CheckOutput
}

func NewFileExistValidator() port.Validator { return &FileExistValidator{} }

func (v *FileExistValidator) Name() string { return FileExistValidatorName }

func (v *FileExistValidator) Validate(in port.ValidatorInput) bool {
	v.out = entity.CheckOutput{}
	for _, fp := range in.CheckPaths {
		info, err := os.Stat(fp)
		if err != nil {
			v.out.Detail = fmt.Sprintf("missing expected file %s", fp)
			return false
		}
		if info.Size() == 0 {
			v.out.Detail = fmt.Sprintf("expected file %s is empty", fp)
			return false
		}
	}
	v.out.Passed = true
	v.out.Detail = fmt.Sprintf("%d files present", len(in.CheckPaths))
	return true
}

func (v *FileExistValidator) Output() entity.CheckOutput { return v.out }
