package shader

// ShaderBuilderOption configures a shader during NewShader.
type ShaderBuilderOption func(*shader)

// WithPreProcessor sets the pre-processor used to expand @oxy: annotations.
//
// Parameters:
//   - pp: the pre-processor
//
// Returns:
//   - ShaderBuilderOption: a function that applies the pre-processor to a shader
func WithPreProcessor(pp PreProcessor) ShaderBuilderOption {
	return func(s *shader) {
		s.pp = pp
	}
}
