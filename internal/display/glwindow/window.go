// Package glwindow presents frames in a GLFW window through an OpenGL 3.3
// textured quad. Every call must happen on the main OS thread.
package glwindow

import (
	"fmt"
	"runtime"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"agd-render/internal/display"
	"agd-render/internal/dsl"
	"agd-render/internal/raster"
	"agd-render/pkg/logger"
)

func init() {
	// GLFW event processing must stay on the main thread.
	runtime.LockOSThread()
}

// Window implements display.Backend.
type Window struct {
	win     *glfw.Window
	width   int
	height  int
	program uint32
	vao     uint32
	vbo     uint32
	tex     uint32
	clicks  []display.Click
}

// Opener adapts Open to display.Opener.
func Opener(spec dsl.WindowSpec) (display.Backend, error) {
	return Open(spec)
}

// Open creates a fixed-size window matching spec.
func Open(spec dsl.WindowSpec) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Samples, 0)

	win, err := glfw.CreateWindow(int(spec.Width), int(spec.Height), spec.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	win.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("gl init: %w", err)
	}
	logger.Infof("GL: %s", gl.GoStr(gl.GetString(gl.VERSION)))

	w := &Window{win: win, width: int(spec.Width), height: int(spec.Height)}
	if err := w.initQuad(); err != nil {
		w.Close()
		return nil, err
	}

	win.SetMouseButtonCallback(func(gw *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft || action != glfw.Release {
			return
		}
		x, y := gw.GetCursorPos()
		w.clicks = append(w.clicks, w.toBuffer(x, y))
	})
	return w, nil
}

// toBuffer maps cursor coordinates to buffer pixels when the window size
// differs from the requested size (HiDPI scaling on some platforms).
func (w *Window) toBuffer(x, y float64) display.Click {
	ww, wh := w.win.GetSize()
	if ww > 0 && ww != w.width {
		x = x * float64(w.width) / float64(ww)
	}
	if wh > 0 && wh != w.height {
		y = y * float64(w.height) / float64(wh)
	}
	return display.Click{X: int(x), Y: int(y)}
}

func (w *Window) initQuad() error {
	var err error
	w.program, err = makeProgram(vertexSource, fragmentSource)
	if err != nil {
		return err
	}

	// Two triangles covering clip space: pos (x,y), uv (u,v). v grows downward
	// so buffer row 0 lands at the top.
	verts := []float32{
		-1, 1, 0, 0,
		-1, -1, 0, 1,
		1, 1, 1, 0,
		1, -1, 1, 1,
	}

	gl.GenVertexArrays(1, &w.vao)
	gl.BindVertexArray(w.vao)

	gl.GenBuffers(1, &w.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, w.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)

	const stride = 4 * 4
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(0)))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(2*4)))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	gl.GenTextures(1, &w.tex)
	gl.BindTexture(gl.TEXTURE_2D, w.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.UseProgram(w.program)
	gl.Uniform1i(gl.GetUniformLocation(w.program, gl.Str("uFrame\x00")), 0)
	gl.UseProgram(0)
	return nil
}

// Blit uploads buf and presents it stretched over the framebuffer.
func (w *Window) Blit(buf *raster.PixelBuffer) error {
	if len(buf.Pix) == 0 {
		return nil
	}

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.BindTexture(gl.TEXTURE_2D, w.tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(buf.Width), int32(buf.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(buf.Pix))

	fw, fh := w.win.GetFramebufferSize()
	gl.Viewport(0, 0, int32(fw), int32(fh))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.UseProgram(w.program)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindVertexArray(w.vao)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.BindVertexArray(0)
	gl.UseProgram(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	w.win.SwapBuffers()
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%x", code)
	}
	return nil
}

func (w *Window) PollClick() (display.Click, bool) {
	glfw.PollEvents()
	if len(w.clicks) == 0 {
		return display.Click{}, false
	}
	c := w.clicks[0]
	w.clicks = w.clicks[1:]
	return c, true
}

func (w *Window) ShouldClose() bool { return w.win.ShouldClose() }

func (w *Window) Close() error {
	if w.tex != 0 {
		gl.DeleteTextures(1, &w.tex)
	}
	if w.vbo != 0 {
		gl.DeleteBuffers(1, &w.vbo)
	}
	if w.vao != 0 {
		gl.DeleteVertexArrays(1, &w.vao)
	}
	if w.program != 0 {
		gl.DeleteProgram(w.program)
	}
	w.win.Destroy()
	glfw.Terminate()
	return nil
}

const vertexSource = `
#version 330 core
layout(location=0) in vec2 aPos;
layout(location=1) in vec2 aUV;
out vec2 vUV;
void main() {
    vUV = aUV;
    gl_Position = vec4(aPos, 0.0, 1.0);
}
` + "\x00"

const fragmentSource = `
#version 330 core
in vec2 vUV;
uniform sampler2D uFrame;
out vec4 FragColor;
void main() {
    FragColor = texture(uFrame, vUV);
}
` + "\x00"

func makeShader(src string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	defer free()
	gl.ShaderSource(sh, 1, csrc, nil)
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		msg := strings.Repeat("\x00", int(logLen))
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(msg))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("shader compile error: %s", msg)
	}
	return sh, nil
}

func makeProgram(vsSrc, fsSrc string) (uint32, error) {
	vs, err := makeShader(vsSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := makeShader(fsSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}
	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		msg := strings.Repeat("\x00", int(logLen))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(msg))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("program link error: %s", msg)
	}
	return prog, nil
}
