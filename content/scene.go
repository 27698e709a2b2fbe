package content

import (
	"time"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/renderloop/driver"
	"github.com/vkngwrapper/renderloop/driver/vk"
	"github.com/vkngwrapper/renderloop/render"
)

// Scene draws a mesh with a rotating model transform. It serves as both
// the pipeline and the resource strategy of a Renderer on a vk.Device.
type Scene struct {
	assets Assets
	clock  func() time.Duration

	device    *vk.Device
	vertices  *vk.Buffer
	indices   *vk.Buffer
	setLayout core1_0.DescriptorSetLayout

	frames *frameResources
}

var (
	_ render.PipelineStrategy = (*Scene)(nil)
	_ render.ResourceStrategy = (*Scene)(nil)
)

// NewScene wraps assets produced by Load. The rotation is driven by the
// hrtime clock.
func NewScene(assets Assets) *Scene {
	return &Scene{assets: assets, clock: hrtime.Now}
}

func (s *Scene) Setup(dev driver.Device, pool driver.CommandPool) error {
	device, ok := dev.(*vk.Device)
	if !ok {
		return errors.Newf("scene: unsupported device %T", dev)
	}
	cmdPool, ok := pool.(*vk.CommandPool)
	if !ok {
		return errors.Newf("scene: unsupported command pool %T", pool)
	}
	s.device = device

	var err error
	s.vertices, err = device.Upload(cmdPool, core1_0.BufferUsageVertexBuffer, s.assets.Mesh.Vertices)
	if err != nil {
		s.Release()
		return errors.Wrap(err, "upload vertices")
	}
	s.indices, err = device.Upload(cmdPool, core1_0.BufferUsageIndexBuffer, s.assets.Mesh.Indices)
	if err != nil {
		s.Release()
		return errors.Wrap(err, "upload indices")
	}

	s.setLayout, _, err = device.Driver().CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,

				StageFlags: core1_0.StageVertex,
			},
		},
	})
	if err != nil {
		s.Release()
		return errors.Wrap(err, "create descriptor set layout")
	}
	return nil
}

func (s *Scene) BuildPipeline(dev driver.Device, target render.RenderTarget) (driver.Pipeline, error) {
	if s.device == nil {
		return nil, errors.New("scene: build pipeline before setup")
	}
	vkDriver := s.device.Driver()

	shader, _, err := vkDriver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: s.assets.SPIRV,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create shader module")
	}
	defer vkDriver.DestroyShaderModule(shader, nil)

	v := Vertex{}
	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{
		VertexBindingDescriptions: []core1_0.VertexInputBindingDescription{
			{
				Binding:   0,
				Stride:    int(unsafe.Sizeof(v)),
				InputRate: core1_0.VertexInputRateVertex,
			},
		},
		VertexAttributeDescriptions: []core1_0.VertexInputAttributeDescription{
			{
				Binding:  0,
				Location: 0,
				Format:   core1_0.FormatR32G32B32SignedFloat,
				Offset:   int(unsafe.Offsetof(v.Position)),
			},
			{
				Binding:  0,
				Location: 1,
				Format:   core1_0.FormatR32G32B32SignedFloat,
				Offset:   int(unsafe.Offsetof(v.Color)),
			},
		},
	}

	extent := core1_0.Extent2D{Width: target.Extent.Width, Height: target.Extent.Height}
	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{
			{
				Width:    float32(extent.Width),
				Height:   float32(extent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			},
		},
		Scissors: []core1_0.Rect2D{
			{Offset: core1_0.Offset2D{X: 0, Y: 0}, Extent: extent},
		},
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		PolygonMode: core1_0.PolygonModeFill,
		FrontFace:   core1_0.FrontFaceCounterClockwise,
		LineWidth:   1.0,
	}

	var depthStencil *core1_0.PipelineDepthStencilStateCreateInfo
	if target.DepthFormat != driver.FormatUndefined {
		depthStencil = &core1_0.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  true,
			DepthWriteEnable: true,
			DepthCompareOp:   core1_0.CompareOpLess,
		}
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOp: core1_0.LogicOpCopy,
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	layout, _, err := vkDriver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: []core1_0.DescriptorSetLayout{s.setLayout},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline layout")
	}

	renderPass, ok := target.RenderPass.(*vk.RenderPass)
	if !ok {
		vkDriver.DestroyPipelineLayout(layout, nil)
		return nil, errors.Newf("scene: unsupported render pass %T", target.RenderPass)
	}

	pipelines, _, err := vkDriver.CreateGraphicsPipelines(nil, nil,
		core1_0.GraphicsPipelineCreateInfo{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				{Stage: core1_0.StageVertex, Module: shader, Name: VertexEntry},
				{Stage: core1_0.StageFragment, Module: shader, Name: FragmentEntry},
			},
			VertexInputState: vertexInput,
			InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
				Topology: core1_0.PrimitiveTopologyTriangleList,
			},
			ViewportState:      viewport,
			RasterizationState: rasterization,
			MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
				RasterizationSamples: core1_0.Samples1,
				MinSampleShading:     1.0,
			},
			DepthStencilState: depthStencil,
			ColorBlendState:   colorBlend,
			Layout:            layout,
			RenderPass:        renderPass.Handle(),
			Subpass:           0,
			BasePipelineIndex: -1,
		},
	)
	if err != nil {
		vkDriver.DestroyPipelineLayout(layout, nil)
		return nil, errors.Wrap(err, "create graphics pipeline")
	}
	return vk.NewPipeline(s.device, layout, pipelines[0]), nil
}

// frameResources are the uniform buffers and descriptor sets of one
// swapchain generation, indexed by image.
type frameResources struct {
	scene    *Scene
	uniforms []*vk.Buffer
	pool     core1_0.DescriptorPool
	sets     []core1_0.DescriptorSet
}

func (f *frameResources) Destroy() {
	vkDriver := f.scene.device.Driver()
	if f.pool.Initialized() {
		vkDriver.DestroyDescriptorPool(f.pool, nil)
		f.pool = core1_0.DescriptorPool{}
	}
	f.sets = nil
	for _, buffer := range f.uniforms {
		buffer.Destroy()
	}
	f.uniforms = nil
	if f.scene.frames == f {
		f.scene.frames = nil
	}
}

func (s *Scene) PrepareFrames(dev driver.Device, target render.RenderTarget) (driver.Destroyer, error) {
	if s.device == nil {
		return nil, errors.New("scene: prepare frames before setup")
	}
	vkDriver := s.device.Driver()
	count := target.ImageCount
	uboSize := int(unsafe.Sizeof(UniformBufferObject{}))

	frames := &frameResources{scene: s}
	for i := 0; i < count; i++ {
		buffer, err := s.device.CreateBuffer(uboSize, core1_0.BufferUsageUniformBuffer, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
		if err != nil {
			frames.Destroy()
			return nil, errors.Wrap(err, "create uniform buffer")
		}
		frames.uniforms = append(frames.uniforms, buffer)
	}

	var err error
	frames.pool, _, err = vkDriver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets: count,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{Type: core1_0.DescriptorTypeUniformBuffer, DescriptorCount: count},
		},
	})
	if err != nil {
		frames.Destroy()
		return nil, errors.Wrap(err, "create descriptor pool")
	}

	layouts := make([]core1_0.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = s.setLayout
	}
	frames.sets, _, err = vkDriver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: frames.pool,
		SetLayouts:     layouts,
	})
	if err != nil {
		frames.Destroy()
		return nil, errors.Wrap(err, "allocate descriptor sets")
	}

	writes := make([]core1_0.WriteDescriptorSet, count)
	for i := range writes {
		writes[i] = core1_0.WriteDescriptorSet{
			DstSet:         frames.sets[i],
			DstBinding:     0,
			DescriptorType: core1_0.DescriptorTypeUniformBuffer,
			BufferInfo: []core1_0.DescriptorBufferInfo{
				{Buffer: frames.uniforms[i].Handle(), Offset: 0, Range: uboSize},
			},
		}
	}
	err = vkDriver.UpdateDescriptorSets(writes, nil)
	if err != nil {
		frames.Destroy()
		return nil, errors.Wrap(err, "update descriptor sets")
	}

	s.frames = frames
	return frames, nil
}

func (s *Scene) Record(cmd driver.CommandBuffer, frame render.FrameTarget) error {
	buffer, ok := cmd.(*vk.CommandBuffer)
	if !ok {
		return errors.Newf("scene: unsupported command buffer %T", cmd)
	}
	pipeline, ok := frame.Pipeline.(*vk.Pipeline)
	if !ok {
		return errors.Newf("scene: unsupported pipeline %T", frame.Pipeline)
	}
	if s.frames == nil || frame.ImageIndex >= len(s.frames.sets) {
		return errors.Newf("scene: no descriptor set for image %d", frame.ImageIndex)
	}

	buffer.BindVertexBuffer(s.vertices)
	buffer.BindIndexBuffer(s.indices)
	buffer.BindDescriptorSet(pipeline, s.frames.sets[frame.ImageIndex])
	buffer.DrawIndexed(len(s.assets.Mesh.Indices))
	return nil
}

func (s *Scene) Update(imageIndex int, extent driver.Extent) error {
	if s.frames == nil || imageIndex >= len(s.frames.uniforms) {
		return errors.Newf("scene: no uniform buffer for image %d", imageIndex)
	}
	ubo := Uniforms(s.clock(), extent)
	return s.frames.uniforms[imageIndex].Write(0, &ubo)
}

func (s *Scene) Release() {
	if s.device == nil {
		return
	}
	if s.setLayout.Initialized() {
		s.device.Driver().DestroyDescriptorSetLayout(s.setLayout, nil)
		s.setLayout = core1_0.DescriptorSetLayout{}
	}
	if s.indices != nil {
		s.indices.Destroy()
		s.indices = nil
	}
	if s.vertices != nil {
		s.vertices.Destroy()
		s.vertices = nil
	}
}
