package analyzer

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// AnalyzerFactory создает анализаторы из общих настроек
type AnalyzerFactory struct {
	Settings   Settings
	Heuristics Heuristics
	Prober     ImageSizeProber
	Assessor   ContentQualityAssessor
}

// NewAnalyzerFactory создает фабрику; при nil-ассессоре используется эвристический
func NewAnalyzerFactory(settings Settings, prober ImageSizeProber, assessor ContentQualityAssessor) *AnalyzerFactory {
	if assessor == nil {
		assessor = NewHeuristicQualityAssessor(settings)
	}
	return &AnalyzerFactory{
		Settings:   settings,
		Heuristics: NewHeuristics(settings),
		Prober:     prober,
		Assessor:   assessor,
	}
}

// CreateAnalyzer создает анализатор заданного компонента
func (f *AnalyzerFactory) CreateAnalyzer(name ComponentName) (Analyzer, error) {
	switch name {
	case ContentQualityComponent:
		return qualityAnalyzer{assessor: f.Assessor}, nil
	case KeywordDensityComponent:
		return NewKeywordDensityAnalyzer(f.Settings), nil
	case ReadabilityComponent:
		return NewReadabilityAnalyzer(f.Settings), nil
	case HeadingStructureComponent:
		return NewHeadingHierarchyValidator(f.Settings, f.Heuristics), nil
	case ImageOptimizationComponent:
		return NewImageOptimizationAnalyzer(f.Settings, f.Heuristics, f.Prober), nil
	case LinkAnalysisComponent:
		return NewLinkAnalyzer(f.Settings, f.Heuristics), nil
	case DuplicateContentComponent:
		return NewDuplicateContentDetector(f.Settings), nil
	default:
		return nil, fmt.Errorf("неизвестный анализатор %q", name)
	}
}

// AnalyzerManager управляет набором анализаторов
type AnalyzerManager struct {
	analyzers map[ComponentName]Analyzer
	mu        sync.RWMutex
}

// NewAnalyzerManager создает пустой менеджер
func NewAnalyzerManager() *AnalyzerManager {
	return &AnalyzerManager{
		analyzers: make(map[ComponentName]Analyzer),
	}
}

// RegisterAnalyzer регистрирует анализатор под его именем
func (m *AnalyzerManager) RegisterAnalyzer(a Analyzer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.analyzers[a.Name()] = a
}

// RegisterAllAnalyzers регистрирует все семь компонентов
func (m *AnalyzerManager) RegisterAllAnalyzers(f *AnalyzerFactory) error {
	for _, name := range Components {
		a, err := f.CreateAnalyzer(name)
		if err != nil {
			return err
		}
		m.RegisterAnalyzer(a)
	}
	return nil
}

// Registered возвращает имена зарегистрированных анализаторов в порядке весов
func (m *AnalyzerManager) Registered() []ComponentName {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]ComponentName, 0, len(m.analyzers))
	for _, name := range Components {
		if _, ok := m.analyzers[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// RunAnalyzer запускает один анализатор. Паника анализатора возвращается как AnalyzerError.
func (m *AnalyzerManager) RunAnalyzer(ctx context.Context, name ComponentName, in *Input) (res Result, err error) {
	m.mu.RLock()
	a, exists := m.analyzers[name]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("анализатор %s не зарегистрирован", name)
	}

	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &AnalyzerError{Analyzer: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	res, err = a.Analyze(ctx, in)
	if err != nil {
		return nil, &AnalyzerError{Analyzer: name, Err: err}
	}
	return res, nil
}

// RunAllAnalyzers запускает все анализаторы параллельно.
// Первая ошибка отменяет остальные, частичный результат не возвращается.
func (m *AnalyzerManager) RunAllAnalyzers(ctx context.Context, in *Input) (map[ComponentName]Result, error) {
	names := m.Registered()

	results := make(map[ComponentName]Result, len(names))
	var resultsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		name := name
		g.Go(func() error {
			res, err := m.RunAnalyzer(gctx, name, in)
			if err != nil {
				return err
			}

			resultsMu.Lock()
			results[name] = res
			resultsMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
