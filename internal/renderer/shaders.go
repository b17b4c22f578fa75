package renderer

import (
	"Walkthrough3D/internal/logger"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

// =============================================================
//
//	Shaders
//
// =============================================================
type Shader struct {
	Name           string
	vertexSource   string
	fragmentSource string
	program        uint32
	isCompiled     bool
	uniforms       *UniformCache
}

func (shader *Shader) Compile() error {
	if shader.isCompiled {
		return nil
	}
	vertexShader, err := GenShader(shader.vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return fmt.Errorf("%s vertex shader: %w", shader.Name, err)
	}
	fragmentShader, err := GenShader(shader.fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return fmt.Errorf("%s fragment shader: %w", shader.Name, err)
	}
	program, err := GenShaderProgram(vertexShader, fragmentShader)
	if err != nil {
		return fmt.Errorf("%s program: %w", shader.Name, err)
	}
	shader.program = program
	shader.uniforms = NewUniformCache(program)
	shader.isCompiled = true
	logger.Log.Debug("Shader compiled", zap.String("name", shader.Name), zap.Uint32("program", program))
	return nil
}

func (shader *Shader) Use() {
	gl.UseProgram(shader.program)
}

func (shader *Shader) Uniforms() *UniformCache {
	return shader.uniforms
}

func (shader *Shader) Delete() {
	if shader.isCompiled {
		gl.DeleteProgram(shader.program)
		shader.isCompiled = false
	}
}

func GenShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	cSources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, cSources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		logger.Log.Error("Failed to compile", zap.Uint32("shaderType", shaderType), zap.String("log", log))
		return 0, fmt.Errorf("compile: %s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func GenShaderProgram(vertexShader, fragmentShader uint32) (uint32, error) {
	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	gl.DetachShader(program, vertexShader)
	gl.DeleteShader(vertexShader)
	gl.DetachShader(program, fragmentShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		logger.Log.Error("Failed to link program", zap.String("log", log))
		return 0, fmt.Errorf("link: %s", strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

// Sampler units, one per MapSlot.
var samplerNames = [mapSlotCount]string{"colorMap", "normalMap", "roughnessMap", "alphaMap", "emissiveMap"}
var hasMapNames = [mapSlotCount]string{"hasColorMap", "hasNormalMap", "hasRoughnessMap", "hasAlphaMap", "hasEmissiveMap"}

var vertexShaderSource = `#version 410 core

layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec2 inTexCoord;
layout(location = 2) in vec3 inNormal;
layout(location = 3) in vec3 inColor;

uniform mat4 model;
uniform mat4 viewProjection;
uniform vec2 uvRepeat;

out vec2 fragTexCoord;
out vec3 Normal;
out vec3 FragPos;
out vec3 vertexColor;

void main() {
    vertexColor = inColor;
    FragPos = vec3(model * vec4(inPosition, 1.0));
    Normal = transpose(inverse(mat3(model))) * inNormal;
    fragTexCoord = inTexCoord * uvRepeat;
    gl_Position = viewProjection * vec4(FragPos, 1.0);
}
` + "\x00"

var fragmentShaderSource = `#version 410 core
in vec2 fragTexCoord;
in vec3 Normal;
in vec3 FragPos;
in vec3 vertexColor;

uniform sampler2D colorMap;
uniform sampler2D normalMap;
uniform sampler2D roughnessMap;
uniform sampler2D alphaMap;
uniform sampler2D emissiveMap;
uniform bool hasColorMap;
uniform bool hasNormalMap;
uniform bool hasRoughnessMap;
uniform bool hasAlphaMap;
uniform bool hasEmissiveMap;

uniform vec3 diffuseColor;
uniform vec3 emissiveColor;
uniform float metallic;
uniform float roughness;
uniform float alpha;
uniform float alphaTest;
uniform bool vertexColors;

uniform vec3 ambientColor;
uniform vec3 lightDirection;
uniform vec3 lightColor;
uniform vec3 viewPos;
uniform int toneMapping;
uniform float exposure;

out vec4 FragColor;

const float PI = 3.14159265359;

vec3 srgbToLinear(vec3 c) {
    return pow(c, vec3(2.2));
}

vec3 linearToSrgb(vec3 c) {
    return pow(c, vec3(1.0 / 2.2));
}

// Normal mapping without precomputed tangents.
mat3 cotangentFrame(vec3 N, vec3 p, vec2 uv) {
    vec3 dp1 = dFdx(p);
    vec3 dp2 = dFdy(p);
    vec2 duv1 = dFdx(uv);
    vec2 duv2 = dFdy(uv);
    vec3 dp2perp = cross(dp2, N);
    vec3 dp1perp = cross(N, dp1);
    vec3 T = dp2perp * duv1.x + dp1perp * duv2.x;
    vec3 B = dp2perp * duv1.y + dp1perp * duv2.y;
    float invmax = inversesqrt(max(dot(T, T), dot(B, B)));
    return mat3(T * invmax, B * invmax, N);
}

vec3 RRTAndODTFit(vec3 v) {
    vec3 a = v * (v + 0.0245786) - 0.000090537;
    vec3 b = v * (0.983729 * v + 0.4329510) + 0.238081;
    return a / b;
}

vec3 ACESFilmic(vec3 color) {
    const mat3 ACESInputMat = mat3(
        vec3(0.59719, 0.07600, 0.02840),
        vec3(0.35458, 0.90834, 0.13383),
        vec3(0.04823, 0.01566, 0.83777));
    const mat3 ACESOutputMat = mat3(
        vec3(1.60475, -0.10208, -0.00327),
        vec3(-0.53108, 1.10813, -0.07276),
        vec3(-0.07367, -0.00605, 1.07602));
    color *= exposure / 0.6;
    color = ACESInputMat * color;
    color = RRTAndODTFit(color);
    color = ACESOutputMat * color;
    return clamp(color, 0.0, 1.0);
}

void main() {
    vec4 base = vec4(diffuseColor, alpha);
    if (vertexColors) {
        base.rgb *= vertexColor;
    }
    if (hasColorMap) {
        vec4 texel = texture(colorMap, fragTexCoord);
        base *= vec4(srgbToLinear(texel.rgb), texel.a);
    }
    if (hasAlphaMap) {
        base.a *= texture(alphaMap, fragTexCoord).g;
    }
    if (alphaTest > 0.0 && base.a < alphaTest) {
        discard;
    }

    vec3 N = normalize(Normal);
    if (!gl_FrontFacing) {
        N = -N;
    }
    if (hasNormalMap) {
        vec3 mapN = texture(normalMap, fragTexCoord).xyz * 2.0 - 1.0;
        N = normalize(cotangentFrame(N, FragPos, fragTexCoord) * mapN);
    }

    float rough = roughness;
    if (hasRoughnessMap) {
        rough *= texture(roughnessMap, fragTexCoord).g;
    }
    rough = clamp(rough, 0.04, 1.0);

    vec3 L = normalize(-lightDirection);
    vec3 V = normalize(viewPos - FragPos);
    vec3 H = normalize(L + V);
    float NdotL = max(dot(N, L), 0.0);

    vec3 albedo = base.rgb * (1.0 - metallic);
    vec3 F0 = mix(vec3(0.04), base.rgb, metallic);
    float shininess = 2.0 / (rough * rough * rough * rough) - 2.0;
    float spec = pow(max(dot(N, H), 0.0), max(shininess, 1.0)) * (shininess + 8.0) / (8.0 * PI);

    vec3 color = ambientColor * albedo;
    color += (albedo + F0 * spec) * lightColor * NdotL;

    vec3 emissive = emissiveColor;
    if (hasEmissiveMap) {
        emissive *= srgbToLinear(texture(emissiveMap, fragTexCoord).rgb);
    }
    color += emissive;

    if (toneMapping == 1) {
        color = ACESFilmic(color);
    } else {
        color *= exposure;
    }
    FragColor = vec4(linearToSrgb(color), base.a);
}
` + "\x00"

var overlayVertexShaderSource = `#version 410 core
layout(location = 0) in vec2 inPosition;
layout(location = 1) in vec4 inColor;

uniform vec2 viewport;

out vec4 vColor;

void main() {
    vec2 ndc = vec2(inPosition.x / viewport.x * 2.0 - 1.0, 1.0 - inPosition.y / viewport.y * 2.0);
    vColor = inColor;
    gl_Position = vec4(ndc, 0.0, 1.0);
}
` + "\x00"

var overlayFragmentShaderSource = `#version 410 core
in vec4 vColor;
out vec4 FragColor;

void main() {
    FragColor = vColor;
}
` + "\x00"

func InitShader() Shader {
	return Shader{
		Name:           "default",
		vertexSource:   vertexShaderSource,
		fragmentSource: fragmentShaderSource,
	}
}

func InitOverlayShader() Shader {
	return Shader{
		Name:           "overlay",
		vertexSource:   overlayVertexShaderSource,
		fragmentSource: overlayFragmentShaderSource,
	}
}
