// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package recipe

import (
	"encoding/json"
	"fmt"
	"os"
)

var topLevelKeys = map[string]bool{
	"config":            true,
	"tamarin_versions":  true,
	"tasks":             true,
}

var configKeys = map[string]bool{
	"global_max_cores":    true,
	"global_max_memory":   true,
	"default_timeout":     true,
	"output_directory":    true,
}

var aliasKeys = map[string]bool{
	"path":         true,
	"version":      true,
	"test_success": true,
}

var taskKeys = map[string]bool{
	"theory_file":        true,
	"tamarin_versions":   true,
	"output_file_prefix": true,
	"lemmas":             true,
	"tamarin_options":    true,
	"preprocess_flags":   true,
	"resources":          true,
}

var lemmaKeys = map[string]bool{
	"name":              true,
	"tamarin_versions":  true,
	"tamarin_options":   true,
	"preprocess_flags":  true,
	"resources":         true,
}

var resourceKeys = map[string]bool{
	"max_cores":  true,
	"max_memory": true,
	"timeout":    true,
}

// Load reads, parses, and validates a recipe file. It performs no filesystem
// access beyond reading this one file; path fields within the recipe are
// retained verbatim for later resolution by the unit expander.
func Load(path string) (*Recipe, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipe %s: %w", path, err)
	}
	return Parse(src)
}

// Parse validates raw recipe JSON bytes and returns the in-memory Recipe.
func Parse(src []byte) (*Recipe, error) {
	top, err := decodeObject(src)
	if err != nil {
		return nil, fmt.Errorf("recipe is not a valid JSON object: %w", err)
	}
	if err := top.checkUnknown("", topLevelKeys); err != nil {
		return nil, err.(*ValidationError).withSource(src)
	}
	for _, required := range []string{"config", "tamarin_versions", "tasks"} {
		if _, ok := top.Fields[required]; !ok {
			return nil, (&ValidationError{Path: required, Message: "required field is missing"}).withSource(src)
		}
	}

	cfg, err := parseConfig(top.Fields["config"], src)
	if err != nil {
		return nil, err
	}

	aliases, aliasOrder, err := parseAliases(top.Fields["tamarin_versions"], src)
	if err != nil {
		return nil, err
	}

	tasks, taskOrder, err := parseTasks(top.Fields["tasks"], src)
	if err != nil {
		return nil, err
	}

	r := &Recipe{
		Config:     cfg,
		Aliases:    aliases,
		AliasOrder: aliasOrder,
		Tasks:      tasks,
		TaskOrder:  taskOrder,
	}

	if err := crossValidate(r); err != nil {
		return nil, err
	}

	return r, nil
}

func parseConfig(raw json.RawMessage, src []byte) (Config, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if verr := obj.checkUnknown("config", configKeys); verr != nil {
		return Config{}, verr.(*ValidationError).withSource(src)
	}

	var cfg Config
	for _, required := range []string{"global_max_cores", "global_max_memory", "default_timeout", "output_directory"} {
		if _, ok := obj.Fields[required]; !ok {
			return Config{}, (&ValidationError{Path: "config." + required, Message: "required field is missing"}).withSource(src)
		}
	}

	if err := json.Unmarshal(obj.Fields["global_max_cores"], &cfg.GlobalMaxCores); err != nil {
		return Config{}, (&ValidationError{Path: "config.global_max_cores", Message: err.Error(), Offset: obj.Offsets["global_max_cores"]}).withSource(src)
	}
	if err := json.Unmarshal(obj.Fields["global_max_memory"], &cfg.GlobalMaxMemoryGB); err != nil {
		return Config{}, (&ValidationError{Path: "config.global_max_memory", Message: err.Error(), Offset: obj.Offsets["global_max_memory"]}).withSource(src)
	}
	if err := json.Unmarshal(obj.Fields["default_timeout"], &cfg.DefaultTimeoutS); err != nil {
		return Config{}, (&ValidationError{Path: "config.default_timeout", Message: "must be an integer number of seconds", Offset: obj.Offsets["default_timeout"]}).withSource(src)
	}
	if cfg.DefaultTimeoutS < 1 {
		return Config{}, (&ValidationError{Path: "config.default_timeout", Message: "must be a positive integer", Offset: obj.Offsets["default_timeout"]}).withSource(src)
	}
	if err := json.Unmarshal(obj.Fields["output_directory"], &cfg.OutputDirectory); err != nil {
		return Config{}, (&ValidationError{Path: "config.output_directory", Message: "must be a string", Offset: obj.Offsets["output_directory"]}).withSource(src)
	}

	return cfg, nil
}

func parseAliases(raw json.RawMessage, src []byte) (map[string]AliasEntry, []string, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("tamarin_versions: %w", err)
	}

	aliases := map[string]AliasEntry{}
	for _, name := range obj.Order {
		if !NamePattern.MatchString(name) {
			return nil, nil, (&ValidationError{
				Path:    "tamarin_versions." + name,
				Message: fmt.Sprintf("alias name %q does not match pattern %s", name, NamePattern.String()),
				Offset:  obj.Offsets[name],
			}).withSource(src)
		}

		entryObj, err := decodeObject(obj.Fields[name])
		if err != nil {
			return nil, nil, fmt.Errorf("tamarin_versions.%s: %w", name, err)
		}
		if verr := entryObj.checkUnknown("tamarin_versions."+name, aliasKeys); verr != nil {
			return nil, nil, verr.(*ValidationError).withSource(src)
		}
		if _, ok := entryObj.Fields["path"]; !ok {
			return nil, nil, (&ValidationError{Path: "tamarin_versions." + name + ".path", Message: "required field is missing"}).withSource(src)
		}

		var entry AliasEntry
		if err := json.Unmarshal(entryObj.Fields["path"], &entry.ExecutablePath); err != nil {
			return nil, nil, (&ValidationError{Path: "tamarin_versions." + name + ".path", Message: "must be a string"}).withSource(src)
		}
		if raw, ok := entryObj.Fields["version"]; ok {
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, nil, (&ValidationError{Path: "tamarin_versions." + name + ".version", Message: "must be a string"}).withSource(src)
			}
			entry.ReportedVersion = &v
		}
		if raw, ok := entryObj.Fields["test_success"]; ok {
			var b bool
			if err := json.Unmarshal(raw, &b); err != nil {
				return nil, nil, (&ValidationError{Path: "tamarin_versions." + name + ".test_success", Message: "must be a boolean"}).withSource(src)
			}
			entry.IntegrityOK = &b
		}

		aliases[name] = entry
	}

	return aliases, obj.Order, nil
}

func parseTasks(raw json.RawMessage, src []byte) (map[string]Task, []string, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("tasks: %w", err)
	}

	tasks := map[string]Task{}
	for _, name := range obj.Order {
		if !NamePattern.MatchString(name) {
			return nil, nil, (&ValidationError{
				Path:    "tasks." + name,
				Message: fmt.Sprintf("task name %q does not match pattern %s", name, NamePattern.String()),
				Offset:  obj.Offsets[name],
			}).withSource(src)
		}

		task, err := parseTask(name, obj.Fields[name], src)
		if err != nil {
			return nil, nil, err
		}
		tasks[name] = task
	}

	return tasks, obj.Order, nil
}

func parseTask(name string, raw json.RawMessage, src []byte) (Task, error) {
	path := "tasks." + name
	obj, err := decodeObject(raw)
	if err != nil {
		return Task{}, fmt.Errorf("%s: %w", path, err)
	}
	if verr := obj.checkUnknown(path, taskKeys); verr != nil {
		return Task{}, verr.(*ValidationError).withSource(src)
	}
	for _, required := range []string{"theory_file", "tamarin_versions", "output_file_prefix"} {
		if _, ok := obj.Fields[required]; !ok {
			return Task{}, (&ValidationError{Path: path + "." + required, Message: "required field is missing"}).withSource(src)
		}
	}

	var t Task
	if err := json.Unmarshal(obj.Fields["theory_file"], &t.TheoryFile); err != nil {
		return Task{}, (&ValidationError{Path: path + ".theory_file", Message: "must be a string"}).withSource(src)
	}
	if err := json.Unmarshal(obj.Fields["tamarin_versions"], &t.Aliases); err != nil {
		return Task{}, (&ValidationError{Path: path + ".tamarin_versions", Message: "must be an array of alias names"}).withSource(src)
	}
	if len(t.Aliases) == 0 {
		return Task{}, (&ValidationError{Path: path + ".tamarin_versions", Message: "must name at least one alias"}).withSource(src)
	}
	if err := json.Unmarshal(obj.Fields["output_file_prefix"], &t.OutputPrefix); err != nil {
		return Task{}, (&ValidationError{Path: path + ".output_file_prefix", Message: "must be a string"}).withSource(src)
	}

	if raw, ok := obj.Fields["tamarin_options"]; ok {
		if err := json.Unmarshal(raw, &t.Options); err != nil {
			return Task{}, (&ValidationError{Path: path + ".tamarin_options", Message: "must be an array of strings"}).withSource(src)
		}
	}
	if raw, ok := obj.Fields["preprocess_flags"]; ok {
		if err := json.Unmarshal(raw, &t.PreprocessorFlags); err != nil {
			return Task{}, (&ValidationError{Path: path + ".preprocess_flags", Message: "must be an array of strings"}).withSource(src)
		}
	}
	if raw, ok := obj.Fields["resources"]; ok {
		ro, err := parseResources(path+".resources", raw, src)
		if err != nil {
			return Task{}, err
		}
		t.Resources = ro
	}
	if raw, ok := obj.Fields["lemmas"]; ok {
		lemmas, err := parseLemmaSpecs(path+".lemmas", raw, src)
		if err != nil {
			return Task{}, err
		}
		t.Lemmas = lemmas
	}

	return t, nil
}

func parseLemmaSpecs(path string, raw json.RawMessage, src []byte) ([]LemmaSpec, error) {
	var rawSpecs []json.RawMessage
	if err := json.Unmarshal(raw, &rawSpecs); err != nil {
		return nil, (&ValidationError{Path: path, Message: "must be an array of lemma specs"}).withSource(src)
	}

	specs := make([]LemmaSpec, 0, len(rawSpecs))
	for i, rawSpec := range rawSpecs {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		obj, err := decodeObject(rawSpec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", itemPath, err)
		}
		if verr := obj.checkUnknown(itemPath, lemmaKeys); verr != nil {
			return nil, verr.(*ValidationError).withSource(src)
		}
		if _, ok := obj.Fields["name"]; !ok {
			return nil, (&ValidationError{Path: itemPath + ".name", Message: "required field is missing"}).withSource(src)
		}

		var spec LemmaSpec
		if err := json.Unmarshal(obj.Fields["name"], &spec.Name); err != nil {
			return nil, (&ValidationError{Path: itemPath + ".name", Message: "must be a string"}).withSource(src)
		}
		if raw, ok := obj.Fields["tamarin_versions"]; ok {
			var aliases []string
			if err := json.Unmarshal(raw, &aliases); err != nil {
				return nil, (&ValidationError{Path: itemPath + ".tamarin_versions", Message: "must be an array of alias names"}).withSource(src)
			}
			spec.Aliases = &aliases
		}
		if raw, ok := obj.Fields["tamarin_options"]; ok {
			var opts []string
			if err := json.Unmarshal(raw, &opts); err != nil {
				return nil, (&ValidationError{Path: itemPath + ".tamarin_options", Message: "must be an array of strings"}).withSource(src)
			}
			spec.Options = &opts
		}
		if raw, ok := obj.Fields["preprocess_flags"]; ok {
			var flags []string
			if err := json.Unmarshal(raw, &flags); err != nil {
				return nil, (&ValidationError{Path: itemPath + ".preprocess_flags", Message: "must be an array of strings"}).withSource(src)
			}
			spec.PreprocessorFlags = &flags
		}
		if raw, ok := obj.Fields["resources"]; ok {
			ro, err := parseResources(itemPath+".resources", raw, src)
			if err != nil {
				return nil, err
			}
			spec.Resources = ro
		}

		specs = append(specs, spec)
	}

	return specs, nil
}

func parseResources(path string, raw json.RawMessage, src []byte) (*ResourceOverride, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if verr := obj.checkUnknown(path, resourceKeys); verr != nil {
		return nil, verr.(*ValidationError).withSource(src)
	}

	ro := &ResourceOverride{}
	if raw, ok := obj.Fields["max_cores"]; ok {
		var n int
		if err := json.Unmarshal(raw, &n); err != nil || n < 1 {
			return nil, (&ValidationError{Path: path + ".max_cores", Message: "must be a positive integer"}).withSource(src)
		}
		ro.Cores = &n
	}
	if raw, ok := obj.Fields["max_memory"]; ok {
		var n int
		if err := json.Unmarshal(raw, &n); err != nil || n < 1 {
			return nil, (&ValidationError{Path: path + ".max_memory", Message: "must be a positive integer"}).withSource(src)
		}
		ro.MemoryGB = &n
	}
	if raw, ok := obj.Fields["timeout"]; ok {
		var n int
		if err := json.Unmarshal(raw, &n); err != nil || n < 1 {
			return nil, (&ValidationError{Path: path + ".timeout", Message: "must be a positive integer"}).withSource(src)
		}
		ro.TimeoutS = &n
	}
	return ro, nil
}

// crossValidate checks references between sections: every alias a task or
// lemma spec names must exist in the top-level alias table.
func crossValidate(r *Recipe) error {
	for _, taskName := range r.TaskOrder {
		task := r.Tasks[taskName]
		for _, alias := range task.Aliases {
			if _, ok := r.Aliases[alias]; !ok {
				return &ValidationError{
					Path:    fmt.Sprintf("tasks.%s.tamarin_versions", taskName),
					Message: fmt.Sprintf("references undefined alias %q", alias),
				}
			}
		}
		for i, spec := range task.Lemmas {
			if spec.Aliases == nil {
				continue
			}
			for _, alias := range *spec.Aliases {
				if _, ok := r.Aliases[alias]; !ok {
					return &ValidationError{
						Path:    fmt.Sprintf("tasks.%s.lemmas[%d].tamarin_versions", taskName, i),
						Message: fmt.Sprintf("references undefined alias %q", alias),
					}
				}
			}
		}
	}
	return nil
}
