package cliadapter

// ClassifyError compares combined stderr+stdout against providerID's
// pattern table and returns "timeout"|"rate_limit"|"auth"|"model_error",
// or "" if nothing matched (spec.md §4.5).
func (r *Registry) ClassifyError(providerID, combinedOutput string) (string, error) {
	provider, err := r.Get(providerID)
	if err != nil {
		return "", err
	}
	return provider.ClassifyError(combinedOutput), nil
}
