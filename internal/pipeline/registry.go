package pipeline

import "sort"

const (
	SchedulerPNDM = "pndm"
	DTypeFloat16  = "float16"
)

// ModelSpec 描述一个可加载的模型
type ModelSpec struct {
	ID         string `json:"model_id"`
	Repository string `json:"repository"`
	Scheduler  string `json:"scheduler"`
	DType      string `json:"dtype"`
}

// Registry 固定的模型集合，只读
type Registry struct {
	byID map[string]ModelSpec
	ids  []string
}

func NewRegistry(specs ...ModelSpec) *Registry {
	r := &Registry{byID: make(map[string]ModelSpec, len(specs))}
	for _, s := range specs {
		if s.Scheduler == "" {
			s.Scheduler = SchedulerPNDM
		}
		if s.DType == "" {
			s.DType = DTypeFloat16
		}
		if _, dup := r.byID[s.ID]; !dup {
			r.ids = append(r.ids, s.ID)
		}
		r.byID[s.ID] = s
	}
	sort.Strings(r.ids)
	return r
}

// DefaultRegistry 内置的三个模型
func DefaultRegistry() *Registry {
	return NewRegistry(
		ModelSpec{ID: "SD V1.5", Repository: "runwayml/stable-diffusion-v1-5"},
		ModelSpec{ID: "SD Pokemon", Repository: "lambdalabs/sd-pokemon-diffusers"},
		ModelSpec{ID: "SD Dogs", Repository: "path/to/fine-tuned-model-2"},
	)
}

func (r *Registry) Lookup(id string) (ModelSpec, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Models 按 ID 排序返回全部模型
func (r *Registry) Models() []ModelSpec {
	out := make([]ModelSpec, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.byID[id])
	}
	return out
}
