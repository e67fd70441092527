package timing

// LineCost holds the per line counters that feed the keystroke delay.
type LineCost struct {
	JumpTargets int
	DimRefs     int
	DimUnits    int
	VarRefs     int
}

// Analyzer bundles the estimators used while typing a BASIC listing.
type Analyzer struct {
	dims *DimEstimator
	vars *VarEstimator
}

func NewAnalyzer(defaultBound, optionBase, maxLetters int) *Analyzer {
	return &Analyzer{
		dims: NewDimEstimator(defaultBound, optionBase),
		vars: NewVarEstimator(maxLetters),
	}
}

func (a *Analyzer) Analyze(line string) LineCost {
	refs, units := a.dims.AnalyzeLine(line)
	vars, _ := a.vars.AnalyzeLine(line)
	return LineCost{
		JumpTargets: JumpTargets(line),
		DimRefs:     refs,
		DimUnits:    units,
		VarRefs:     vars,
	}
}
