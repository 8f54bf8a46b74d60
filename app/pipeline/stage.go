package pipeline

import (
	"fmt"
	"strings"
)

// Stage names one step of the pipeline. Stages run in the order listed
// by Stages; any of them can be skipped by name.
type Stage string

const (
	StageExtract     Stage = "extract"
	StageProcess     Stage = "process"
	StageVectorStore Stage = "vectorstore"
	StageInsights    Stage = "insights"
	StageSlides      Stage = "slides"
	StageRemoteSync  Stage = "remote-sync"
)

var Stages = []Stage{
	StageExtract,
	StageProcess,
	StageVectorStore,
	StageInsights,
	StageSlides,
	StageRemoteSync,
}

func ParseStage(name string) (Stage, error) {
	stage := Stage(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Stages {
		if stage == known {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown stage: %s", name)
}

// ParseSkips builds a skip set from stage names, rejecting unknown ones.
func ParseSkips(names []string) (map[Stage]bool, error) {
	skips := map[Stage]bool{}
	for _, name := range names {
		if name == "" {
			continue
		}
		stage, err := ParseStage(name)
		if err != nil {
			return nil, err
		}
		skips[stage] = true
	}
	return skips, nil
}
